package market

import "strings"

// Commodity is one tradeable commodity.
type Commodity struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Mandi is one wholesale market.
type Mandi struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Commodities lists the commodities the service quotes.
func Commodities() []Commodity {
	return []Commodity{
		{Name: "Wheat", Value: "wheat", Unit: "quintal"},
		{Name: "Rice", Value: "rice", Unit: "quintal"},
		{Name: "Tomato", Value: "tomato", Unit: "quintal"},
		{Name: "Onion", Value: "onion", Unit: "quintal"},
		{Name: "Potato", Value: "potato", Unit: "quintal"},
		{Name: "Cotton", Value: "cotton", Unit: "quintal"},
		{Name: "Sugarcane", Value: "sugarcane", Unit: "quintal"},
		{Name: "Maize", Value: "maize", Unit: "quintal"},
		{Name: "Soybean", Value: "soybean", Unit: "quintal"},
		{Name: "Groundnut", Value: "groundnut", Unit: "quintal"},
	}
}

// Mandis lists the markets the service knows, optionally filtered by state.
func Mandis(state string) []Mandi {
	all := []Mandi{
		{Name: "Bengaluru", State: "Karnataka"},
		{Name: "Mumbai", State: "Maharashtra"},
		{Name: "Delhi", State: "Delhi"},
		{Name: "Chennai", State: "Tamil Nadu"},
		{Name: "Hyderabad", State: "Telangana"},
		{Name: "Kolkata", State: "West Bengal"},
		{Name: "Pune", State: "Maharashtra"},
		{Name: "Ahmedabad", State: "Gujarat"},
		{Name: "Jaipur", State: "Rajasthan"},
		{Name: "Lucknow", State: "Uttar Pradesh"},
		{Name: "Ludhiana", State: "Punjab"},
		{Name: "Indore", State: "Madhya Pradesh"},
	}
	if state == "" {
		return all
	}
	filtered := all[:0]
	for _, m := range all {
		if strings.EqualFold(m.State, state) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func lower(s string) string {
	return strings.ToLower(s)
}
