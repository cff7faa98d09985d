package policy

import "github.com/farm-guru/farmguru-go/internal/store"

// BuiltinSchemes returns the bundled national scheme set used when no store
// is configured or the store holds no schemes. Freshly allocated per call.
func BuiltinSchemes() []store.SchemeRecord {
	return []store.SchemeRecord{
		{
			Name:        "PM-KISAN",
			Code:        "PM-KISAN",
			Description: "Income support scheme providing ₹6000 annually to farmer families",
			Eligibility: []string{
				"Small and marginal farmer families",
				"Land holding up to 2 hectares",
				"Indian citizenship required",
			},
			RequiredDocs: []string{
				"Aadhaar Card",
				"Land ownership papers",
				"Bank account details",
				"Mobile number",
			},
			Benefits:    "₹6000 per year in three installments of ₹2000 each",
			URL:         "https://pmkisan.gov.in/",
			MaxLandSize: 2.0,
			FarmerTypes: []string{"small", "marginal"},
		},
		{
			Name:        "Pradhan Mantri Fasal Bima Yojana (PMFBY)",
			Code:        "PMFBY",
			Description: "Crop insurance scheme protecting farmers against crop loss",
			Eligibility: []string{
				"All farmers (landowner/tenant)",
				"Notified crops in notified areas",
				"Compulsory for loanee farmers",
			},
			RequiredDocs: []string{
				"Application form",
				"Aadhaar/Voter ID",
				"Bank account details",
				"Land records",
				"Sowing certificate",
			},
			Benefits:    "Comprehensive risk cover against all non-preventable natural risks",
			URL:         "https://pmfby.gov.in/",
			Crops:       []string{"wheat", "rice", "cotton", "sugarcane", "oilseeds"},
			FarmerTypes: []string{"small", "marginal", "large"},
		},
		{
			Name:        "Kisan Credit Card (KCC)",
			Code:        "KCC",
			Description: "Credit facility for farmers at subsidized interest rates",
			Eligibility: []string{
				"Farmers with land ownership",
				"Tenant farmers with valid documents",
				"SHG members involved in agriculture",
			},
			RequiredDocs: []string{
				"KYC documents",
				"Land documents",
				"Income certificate",
				"Crop plan/budget",
			},
			Benefits:    "Credit up to ₹3 lakh at 4% interest rate (with subsidy)",
			URL:         "https://www.nabard.org/content1.aspx?id=581",
			FarmerTypes: []string{"small", "marginal", "large"},
		},
		{
			Name:        "PM-KUSUM",
			Code:        "PM-KUSUM",
			Description: "Solar energy scheme for irrigation and grid feeding",
			Eligibility: []string{
				"Individual farmers",
				"Cooperatives/FPOs",
				"Water user associations",
			},
			RequiredDocs: []string{
				"Application form",
				"Land documents",
				"Electricity connection proof",
				"Bank guarantee",
			},
			Benefits:    "30-60% subsidy on solar pumps and grid-connected solar plants",
			URL:         "https://pmkusum.mnre.gov.in/",
			FarmerTypes: []string{"small", "marginal", "large"},
		},
		{
			Name:        "Soil Health Card Scheme",
			Code:        "SHC",
			Description: "Free soil testing and nutrient management recommendations",
			Eligibility: []string{
				"All farmers",
				"Land ownership or cultivation rights",
			},
			RequiredDocs: []string{
				"Land documents",
				"Aadhaar card",
				"Application form",
			},
			Benefits:    "Free soil testing every 2 years with fertilizer recommendations",
			URL:         "https://soilhealth.dac.gov.in/",
			FarmerTypes: []string{"small", "marginal", "large"},
		},
	}
}

// States lists the states and union territories accepted for scheme
// filtering.
func States() []string {
	return []string{
		"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
		"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
		"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
		"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
		"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
		"Delhi", "Jammu and Kashmir", "Ladakh", "Puducherry",
	}
}
