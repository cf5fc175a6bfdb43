// Package intent turns one free-form user utterance into structured
// disclosure/order/question signals. Two paths exist by design: a
// deterministic pattern cascade that needs no external call, and a
// validation layer that checks an external semantic classifier's output
// against local signals before trusting it.
package intent

import (
	"strings"

	"allersim/pkg/types"
)

// Result is the classifier's verdict for one utterance. A single utterance
// may both disclose and order ("I'm allergic to nuts, I'll have the soup"):
// ordering is the primary intent but allergens are always extracted.
type Result struct {
	IsDisclosure       bool
	DisclosedAllergens []string
	IsOrdering         bool
	OrderedDish        string
	IsQuestion         bool
}

// PatternKind tags a rule in the cascade so precedence is auditable.
type PatternKind int

const (
	DisclosurePattern PatternKind = iota
	OrderPattern
	QuestionPattern
)

// Rule is one entry in the prioritized cascade: an utterance matches when
// it contains any of the phrases.
type Rule struct {
	Kind    PatternKind
	Phrases []string
}

// disclosureRules fire on explicit positive or negative allergy statements.
// Stating "I have no allergies" is itself an informative disclosure.
var disclosureRules = []Rule{
	{Kind: DisclosurePattern, Phrases: []string{
		"i'm allergic to", "i am allergic to", "im allergic to",
		"i have an allergy to", "i have allergies to",
		"i can't eat", "i cannot eat", "i cant eat",
		"allergic to",
	}},
	{Kind: DisclosurePattern, Phrases: []string{
		"no allergies", "i don't have any allergies", "i dont have any allergies",
		"i have no allergies", "no food allergies",
	}},
}

// orderRules fire on ordering phrases and short confirmations.
var orderRules = []Rule{
	{Kind: OrderPattern, Phrases: []string{
		"i'll have", "ill have", "i will have", "i'll take", "ill take",
		"i want", "i'd like", "id like", "i would like",
		"give me", "can i get", "could i get", "let me get",
		"i'll go with", "ill go with", "i'll order", "ill order",
	}},
	{Kind: OrderPattern, Phrases: []string{
		"sure", "perfect", "sounds good", "yes please", "that works",
		"that one", "that sounds great",
	}},
}

// questionRules mark interrogative utterances independent of the other
// signals.
var questionRules = []Rule{
	{Kind: QuestionPattern, Phrases: []string{
		"what", "how", "which", "why", "does it contain", "is there",
		"can you tell me", "do you have", "do you know",
	}},
}

// questionStarters suppress ordering when they open the utterance: "what
// can I have" is a menu question, not an order.
var questionStarters = []string{
	"what", "so what", "how", "which", "is ", "are ", "does ", "do ", "can you", "could you",
}

// fillers are conversational noise, classified as neither disclosure nor
// order unless a disclosure phrase is also present.
var fillers = []string{
	"ok", "okay", "thanks", "thank you", "hi", "hello", "hey", "alright",
}

// commonAllergens is the vocabulary scanned when extracting allergens that
// the player never pre-declared. Specific terms come before their
// substrings ("shellfish" before "fish") so one mention yields one entry.
var commonAllergens = []string{
	"tree nuts", "peanuts", "peanut", "shellfish", "prawns", "shrimp",
	"dairy", "milk", "eggs", "egg", "nuts", "fish", "soy", "wheat",
	"gluten", "sesame",
}

// foodCategories is the vocabulary scanned when extracting a dish name from
// an ordering utterance.
var foodCategories = []string{
	"pasta", "pizza", "chicken", "fish", "soup", "salad", "burger", "steak",
	"salmon", "curry", "risotto", "lasagna", "skewers", "sandwich", "chips",
	"noodles", "tacos", "pie",
}

// compoundDishes maps co-occurring category words onto a composite dish
// name, checked before the single-word fallback.
var compoundDishes = []struct {
	Words []string
	Name  string
}{
	{Words: []string{"vegetarian", "pasta"}, Name: "Vegetarian Pasta"},
	{Words: []string{"butter", "chicken"}, Name: "Butter Chicken"},
	{Words: []string{"fish", "chips"}, Name: "Fish & Chips"},
	{Words: []string{"satay", "chicken"}, Name: "Satay Chicken Skewers"},
	{Words: []string{"tomato", "soup"}, Name: "Tomato & Basil Soup"},
	{Words: []string{"caesar", "salad"}, Name: "Caesar Salad"},
}

// Classifier evaluates the pattern cascade in a fixed, documented order:
// disclosure rules, then order rules (suppressed by question starters),
// then dish extraction, then question rules, then the filler tie-break.
type Classifier struct{}

// NewClassifier returns the deterministic pattern classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify runs the pattern cascade over one utterance. knownAllergies is
// the player's declared profile, used for the "I have <allergen>"
// construction and allergen extraction.
func (c *Classifier) Classify(utterance string, knownAllergies []string) Result {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if lower == "" {
		return Result{}
	}

	var result Result

	result.IsDisclosure = matchesAnyRule(lower, disclosureRules)
	if !result.IsDisclosure {
		// "I have peanuts" and "I have a dairy allergy" count as disclosure
		// without a trigger phrase when the allergen is one of the player's
		// declared allergies.
		for _, allergy := range knownAllergies {
			name := strings.ToLower(allergy)
			if strings.Contains(lower, "i have "+name) ||
				strings.Contains(lower, "i have a "+name) ||
				strings.Contains(lower, "i have an "+name) {
				result.IsDisclosure = true
				break
			}
		}
	}
	if result.IsDisclosure {
		result.DisclosedAllergens = ExtractAllergens(lower, knownAllergies)
	}

	isQuestionStart := false
	for _, starter := range questionStarters {
		if strings.HasPrefix(lower, starter) {
			isQuestionStart = true
			break
		}
	}

	if !isQuestionStart && matchesAnyRule(lower, orderRules) {
		result.IsOrdering = true
		result.OrderedDish = extractDish(lower)
	}

	result.IsQuestion = strings.Contains(lower, "?") || matchesAnyRule(lower, questionRules)

	// Filler tie-break: bare conversational noise is neither disclosure nor
	// order, but disclosure phrases always win over the filler list.
	if isFiller(lower) && !result.IsDisclosure {
		result.IsOrdering = false
		result.OrderedDish = ""
	}

	return result
}

// ApplySemantic converts the external semantic classifier's output into a
// Result, overriding it wherever it contradicts a strong local signal.
// This validation is what makes an unreliable external classifier safe to
// feed into the belief state.
func (c *Classifier) ApplySemantic(utterance string, knownAllergies []string, sem *types.SemanticResult) Result {
	local := c.Classify(utterance, knownAllergies)
	if sem == nil {
		return local
	}

	lower := strings.ToLower(strings.TrimSpace(utterance))

	result := Result{
		IsDisclosure:       sem.Intent == types.IntentAllergyDisclosure,
		DisclosedAllergens: append([]string(nil), sem.MentionedAllergies...),
		IsOrdering:         sem.Intent == types.IntentFoodOrdering,
		OrderedDish:        strings.TrimSpace(sem.OrderedFood),
		IsQuestion:         sem.IsAskingQuestion,
	}

	// Emergency re-extraction: an explicit trigger phrase with no reported
	// allergens means the model dropped them.
	if len(result.DisclosedAllergens) == 0 && matchesAnyRule(lower, disclosureRules) {
		result.IsDisclosure = true
		result.DisclosedAllergens = ExtractAllergens(lower, knownAllergies)
	}

	// Allergens are always extracted regardless of the primary intent.
	if len(local.DisclosedAllergens) > 0 {
		result.IsDisclosure = true
		result.DisclosedAllergens = unionStrings(result.DisclosedAllergens, local.DisclosedAllergens)
	}

	// A clear local menu question beats a food_ordering tag from the model.
	if result.IsOrdering && local.IsQuestion && !local.IsOrdering {
		result.IsOrdering = false
		result.OrderedDish = ""
		result.IsQuestion = true
	}

	// An ordering intent with no dish named falls back to local extraction.
	if result.IsOrdering && result.OrderedDish == "" {
		result.OrderedDish = extractDish(lower)
	}

	if local.IsQuestion {
		result.IsQuestion = true
	}

	return result
}

// ExtractAllergens scans an utterance for the player's declared allergies
// and the common-allergen vocabulary. A negative disclosure ("no
// allergies") yields an empty list.
func ExtractAllergens(utterance string, knownAllergies []string) []string {
	lower := strings.ToLower(utterance)
	var found []string
	seen := map[string]bool{}

	add := func(name string) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			found = append(found, name)
		}
	}

	for _, allergy := range knownAllergies {
		if strings.Contains(lower, strings.ToLower(allergy)) {
			add(allergy)
		}
	}
	for _, name := range commonAllergens {
		if strings.Contains(lower, name) {
			// Skip subsumed duplicates: "peanut" when "peanuts" matched.
			dup := false
			for _, f := range found {
				if strings.Contains(strings.ToLower(f), name) {
					dup = true
					break
				}
			}
			if !dup {
				add(name)
			}
		}
	}
	return found
}

func extractDish(lower string) string {
	for _, compound := range compoundDishes {
		all := true
		for _, w := range compound.Words {
			if !strings.Contains(lower, w) {
				all = false
				break
			}
		}
		if all {
			return compound.Name
		}
	}
	for _, category := range foodCategories {
		if strings.Contains(lower, category) {
			return titleWord(category)
		}
	}
	return ""
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

func matchesAnyRule(lower string, rules []Rule) bool {
	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
	}
	return false
}

func isFiller(lower string) bool {
	trimmed := strings.Trim(lower, " .,!")
	for _, f := range fillers {
		if trimmed == f || strings.HasPrefix(trimmed, f+" ") || strings.HasSuffix(trimmed, " "+f) {
			return true
		}
	}
	return false
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
