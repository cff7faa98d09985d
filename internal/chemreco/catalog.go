package chemreco

// CropInfo describes one supported crop and its common issues.
type CropInfo struct {
	Name         string   `json:"name"`
	Value        string   `json:"value"`
	CommonIssues []string `json:"common_issues"`
}

// SymptomCategory groups symptoms by the plant part they affect.
type SymptomCategory struct {
	Category string   `json:"category"`
	Symptoms []string `json:"symptoms"`
}

// SupportedCrops lists the crops the diagnosis rules know about.
func SupportedCrops() []CropInfo {
	return []CropInfo{
		{Name: "Tomato", Value: "tomato", CommonIssues: []string{"early blight", "late blight", "leaf curl"}},
		{Name: "Wheat", Value: "wheat", CommonIssues: []string{"rust", "leaf spot", "powdery mildew"}},
		{Name: "Rice", Value: "rice", CommonIssues: []string{"blast", "brown spot", "sheath blight"}},
		{Name: "Cotton", Value: "cotton", CommonIssues: []string{"bollworm", "aphids", "leaf curl"}},
		{Name: "Potato", Value: "potato", CommonIssues: []string{"late blight", "early blight", "black scurf"}},
		{Name: "Onion", Value: "onion", CommonIssues: []string{"purple blotch", "downy mildew", "thrips"}},
		{Name: "Chili", Value: "chili", CommonIssues: []string{"anthracnose", "leaf curl", "fruit rot"}},
		{Name: "Maize", Value: "maize", CommonIssues: []string{"leaf blight", "stalk rot", "fall armyworm"}},
	}
}

// CommonSymptoms lists the symptom vocabulary grouped by category.
func CommonSymptoms() []SymptomCategory {
	return []SymptomCategory{
		{Category: "Leaf Issues", Symptoms: []string{"yellowing leaves", "brown spots", "leaf curl", "wilting", "holes in leaves"}},
		{Category: "Stem Issues", Symptoms: []string{"stem rot", "cankers", "galls", "stunted growth"}},
		{Category: "Fruit Issues", Symptoms: []string{"fruit rot", "spots on fruit", "premature drop", "deformed fruit"}},
		{Category: "Root Issues", Symptoms: []string{"root rot", "poor root development", "plant wilting despite adequate water"}},
		{Category: "General", Symptoms: []string{"overall yellowing", "stunted growth", "poor flowering", "reduced yield"}},
	}
}
