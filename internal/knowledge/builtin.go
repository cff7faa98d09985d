package knowledge

// BuiltinDocuments returns the built-in agricultural knowledge set used when
// no external document source is configured or the source is unreachable.
// The slice is freshly allocated on each call so callers can never mutate
// the canonical set.
func BuiltinDocuments() []Document {
	return []Document{
		{
			ID:      "1",
			Title:   "Wheat Irrigation Guidelines",
			Content: "Wheat requires 4-6 irrigations during its growing season. Critical stages for irrigation include crown root initiation (20-25 days), tillering (40-45 days), jointing (60-65 days), flowering (85-90 days), and grain filling (100-110 days). Soil moisture should be maintained at 50-60% of field capacity.",
			URL:     "https://icar.org.in/wheat-cultivation",
			Snippet: "Wheat requires 4-6 irrigations during growing season at critical stages including crown root initiation, tillering, jointing, flowering, and grain filling.",
		},
		{
			ID:      "2",
			Title:   "Tomato Pest Management",
			Content: "Common tomato pests include whitefly, aphids, thrips, and fruit borers. Integrated pest management includes crop rotation, resistant varieties, biological control agents like Trichogramma, and need-based pesticide application. Monitor crops weekly for early detection.",
			URL:     "https://icar.org.in/tomato-pest-management",
			Snippet: "Tomato pest management requires integrated approach with crop rotation, resistant varieties, biological control, and regular monitoring for early detection.",
		},
		{
			ID:      "3",
			Title:   "Rice Planting Calendar",
			Content: "Rice planting timing varies by region. Kharif rice is sown June-July, transplanted July-August. Rabi rice sown November-December in southern states. Seed treatment with fungicides recommended. Maintain 2-3 cm water level after transplanting.",
			URL:     "https://icar.org.in/rice-cultivation",
			Snippet: "Rice planting timing: Kharif sown June-July, Rabi November-December. Seed treatment and proper water management essential for good yields.",
		},
		{
			ID:      "4",
			Title:   "Soil Health Management",
			Content: "Soil testing every 2-3 years helps determine nutrient status. Organic matter addition through compost, FYM improves soil structure. Balanced NPK application based on soil test results. Micronutrient deficiencies common in alkaline soils.",
			URL:     "https://icar.org.in/soil-health",
			Snippet: "Regular soil testing, organic matter addition, and balanced fertilization based on soil test results are key for soil health management.",
		},
		{
			ID:      "5",
			Title:   "Crop Disease Identification",
			Content: "Early disease detection crucial for management. Common symptoms include leaf spots, wilting, yellowing, stunted growth. Fungal diseases favored by high humidity. Bacterial diseases spread through water splash. Viral diseases transmitted by insects.",
			URL:     "https://icar.org.in/plant-diseases",
			Snippet: "Early disease detection through symptom recognition (leaf spots, wilting, yellowing) enables timely management and prevents crop losses.",
		},
		{
			ID:      "6",
			Title:   "Organic Farming Practices",
			Content: "Organic farming relies on natural inputs like compost, biofertilizers, biopesticides. Crop rotation, intercropping, and cover crops maintain soil fertility. Certification process takes 3 years. Premium prices offset lower yields initially.",
			URL:     "https://icar.org.in/organic-farming",
			Snippet: "Organic farming uses natural inputs, crop rotation, and biological methods. Certification takes 3 years but offers premium market prices.",
		},
		{
			ID:      "7",
			Title:   "Water Conservation Techniques",
			Content: "Drip irrigation saves 30-50% water compared to flood irrigation. Mulching reduces evaporation losses. Rainwater harvesting and farm ponds store monsoon water. Laser land leveling improves water use efficiency in flood irrigation.",
			URL:     "https://icar.org.in/water-conservation",
			Snippet: "Water conservation through drip irrigation, mulching, rainwater harvesting, and laser leveling can save 30-50% water while maintaining yields.",
		},
		{
			ID:      "8",
			Title:   "Post-Harvest Management",
			Content: "Proper harvesting timing, cleaning, drying, and storage reduce post-harvest losses. Moisture content should be 12-14% for safe storage. Use of hermetic storage, improved storage structures prevent pest damage and quality deterioration.",
			URL:     "https://icar.org.in/post-harvest",
			Snippet: "Proper harvesting, drying to 12-14% moisture, and improved storage structures significantly reduce post-harvest losses and maintain quality.",
		},
	}
}
