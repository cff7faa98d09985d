package synthesis

import "strings"

// queryFeatures captures everything the deterministic rules may key on:
// the lowercased query text and the optional image-derived context.
type queryFeatures struct {
	// lower is the lowercased query text.
	lower string

	// imageContext describes the uploaded image (e.g. "Image shows: tomato
	// leaf with early blight"). Empty when no image accompanies the query.
	imageContext string
}

// containsAny reports whether the lowercased query contains any of the given
// keywords as a substring.
func (q queryFeatures) containsAny(keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(q.lower, kw) {
			return true
		}
	}
	return false
}

// answerRule is one entry of the answer-selection cascade: a predicate over
// the query features and a renderer producing the answer text from the
// available snippets. Rules are evaluated in order; the first match wins.
type answerRule struct {
	name   string
	match  func(q queryFeatures) bool
	render func(q queryFeatures, snippets []string) string
}

// joinFirst joins up to n snippets with single spaces.
func joinFirst(snippets []string, n int) string {
	if len(snippets) > n {
		snippets = snippets[:n]
	}
	return strings.Join(snippets, " ")
}

// withEvidence appends the first snippet to base when evidence exists,
// otherwise appends the branch's static default sentence.
func withEvidence(base string, snippets []string, fallback string) string {
	if len(snippets) > 0 {
		return base + " " + snippets[0]
	}
	return base + " " + fallback
}

// referralMessage is the generic answer used when no rule matches and no
// evidence was retrieved.
const referralMessage = "For specific agricultural advice, I recommend consulting with your local Krishi Vigyan Kendra (KVK) or agricultural extension officer who can provide guidance tailored to your local conditions and crops."

// answerRules is the fixed-priority answer cascade. Image context outranks
// every keyword category; the generic rule at the end always matches.
var answerRules = []answerRule{
	{
		name:  "image",
		match: func(q queryFeatures) bool { return q.imageContext != "" },
		render: func(q queryFeatures, snippets []string) string {
			if q.containsAny("disease", "pest") {
				evidence := joinFirst(snippets, 2)
				if evidence == "" {
					evidence = "Please consult with a local agricultural expert for proper diagnosis and treatment recommendations."
				}
				return "Based on the uploaded image showing " + q.imageContext + ", I can see potential issues that may require attention. " + evidence
			}
			evidence := joinFirst(snippets, 2)
			if evidence == "" {
				evidence = "this appears to be a healthy crop. Continue with regular care and monitoring."
			}
			return "From the uploaded image of " + q.imageContext + ", " + evidence
		},
	},
	{
		name:  "irrigation",
		match: func(q queryFeatures) bool { return q.containsAny("irrigate", "water", "rain", "weather") },
		render: func(q queryFeatures, snippets []string) string {
			return withEvidence(
				"For irrigation timing, consider soil moisture, weather conditions, and crop growth stage.",
				snippets,
				"Check soil moisture at 6-inch depth and irrigate when it feels dry.",
			)
		},
	},
	{
		name:  "pest",
		match: func(q queryFeatures) bool { return q.containsAny("pest", "disease", "insect", "fungus") },
		render: func(q queryFeatures, snippets []string) string {
			return withEvidence(
				"For pest and disease management, early identification and integrated pest management are key.",
				snippets,
				"Monitor crops regularly and consult local agricultural extension services for specific treatments.",
			)
		},
	},
	{
		name:  "planting",
		match: func(q queryFeatures) bool { return q.containsAny("plant", "sow", "seed", "timing") },
		render: func(q queryFeatures, snippets []string) string {
			return withEvidence(
				"Planting timing depends on local climate, soil conditions, and crop variety.",
				snippets,
				"Consult your local agricultural calendar and weather forecasts for optimal timing.",
			)
		},
	},
	{
		name:  "market",
		match: func(q queryFeatures) bool { return q.containsAny("price", "market", "sell", "buy") },
		render: func(q queryFeatures, snippets []string) string {
			return withEvidence(
				"Market prices fluctuate based on supply, demand, and seasonal factors.",
				snippets,
				"Check local mandi prices and consider storage options during peak harvest.",
			)
		},
	},
	{
		name:  "generic",
		match: func(q queryFeatures) bool { return true },
		render: func(q queryFeatures, snippets []string) string {
			if len(snippets) > 0 {
				return "Based on agricultural best practices: " + joinFirst(snippets, 2)
			}
			return referralMessage
		},
	},
}

// selectAnswer runs the answer cascade and returns the first matching rule's
// rendering. Total: the generic rule always matches.
func selectAnswer(q queryFeatures, snippets []string) string {
	for _, rule := range answerRules {
		if rule.match(q) {
			return rule.render(q, snippets)
		}
	}
	return referralMessage // unreachable, generic always matches
}

// actionRule is one action category: a predicate plus the fixed actions that
// category contributes. Unlike the answer cascade, every matching category
// contributes — the combined list is then truncated.
type actionRule struct {
	name    string
	match   func(q queryFeatures) bool
	actions []string
}

// actionRules are the action categories, evaluated independently in order.
var actionRules = []actionRule{
	{
		name: "diagnosis",
		match: func(q queryFeatures) bool {
			return q.imageContext != "" || q.containsAny("disease", "pest", "problem")
		},
		actions: []string{
			"Consult local KVK for expert diagnosis",
			"Monitor crop daily for changes",
			"Consider soil testing if needed",
		},
	},
	{
		name:  "irrigation",
		match: func(q queryFeatures) bool { return q.containsAny("irrigate", "water") },
		actions: []string{
			"Check soil moisture levels",
			"Monitor weather forecast",
			"Adjust irrigation schedule accordingly",
		},
	},
	{
		name:  "planting",
		match: func(q queryFeatures) bool { return q.containsAny("plant", "sow", "seed") },
		actions: []string{
			"Check local weather conditions",
			"Prepare soil with proper nutrients",
			"Source quality seeds from certified dealers",
		},
	},
	{
		name:  "market",
		match: func(q queryFeatures) bool { return q.containsAny("market", "price", "sell") },
		actions: []string{
			"Check current mandi prices",
			"Consider storage options",
			"Plan harvest timing strategically",
		},
	},
}

// defaultActions is returned when no action category matches.
var defaultActions = []string{
	"Consult local agricultural expert",
	"Monitor crop conditions regularly",
	"Keep records of farming activities",
}

// maxActions is the exact length of every returned action list.
const maxActions = 3

// selectActions concatenates the actions of every matching category and
// truncates to exactly maxActions entries. With no match it returns the fixed
// default list. The result is always freshly allocated.
func selectActions(q queryFeatures) []string {
	var actions []string
	for _, rule := range actionRules {
		if rule.match(q) {
			actions = append(actions, rule.actions...)
		}
	}
	if len(actions) == 0 {
		actions = append(actions, defaultActions...)
	}
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}
