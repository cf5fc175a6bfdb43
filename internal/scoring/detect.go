package scoring

import (
	"strings"

	"allersim/internal/menu"
	"allersim/pkg/types"
)

// Criterion keyword sets, scanned over every turn's lowercased user input.
var (
	ingredientKeywords = []string{
		"ingredient", "contain", "what's in", "whats in", "made with", "is there",
	}
	crossContactKeywords = []string{
		"cross", "contamination", "shared", "separate", "fryer", "equipment",
	}
	preparationKeywords = []string{
		"prepared", "preparation", "cooked", "fried", "grilled", "how is it made", "how do you make",
	}
	hiddenAllergenKeywords = []string{
		"sauce", "hidden", "stock", "broth", "marinade", "dressing", "garnish",
	}
	politenessKeywords = []string{
		"please", "thank you", "thanks", "could you", "would you",
	}
	kitchenVerifyKeywords = []string{
		"check with the kitchen", "check with the chef", "ask the kitchen",
		"ask the chef", "verify with", "double check with",
	}
	assertivenessKeywords = []string{
		"i need", "it's important", "its important", "make sure", "must not",
		"can't have", "cannot have", "serious", "very allergic",
	}
	suggestionMarkers = []string{
		"recommend", "suggest", "how about", "you might like", "popular choice", "try the", "try our",
	}
)

// anyTurnContains reports whether any user turn contains any of the
// keywords.
func anyTurnContains(turns []types.ConversationTurn, keywords []string) bool {
	for _, turn := range turns {
		lower := strings.ToLower(turn.UserInput)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// unsafeSuggestionOutcome classifies the advanced "reaction to unsafe
// suggestion" criterion.
type unsafeSuggestionOutcome int

const (
	noUnsafeSuggestion unsafeSuggestionOutcome = iota
	rejectedUnsafeSuggestion
	acceptedUnsafeSuggestion
)

// detectUnsafeSuggestion scans AI replies for a suggestion naming an item
// unsafe for the profile, then checks whether that item ended up as the
// final selected dish.
func detectUnsafeSuggestion(turns []types.ConversationTurn, profile types.PlayerProfile, index *menu.SafetyIndex, finalDish string) unsafeSuggestionOutcome {
	unsafeItems := index.UnsafeItems(profile.Allergies)
	if len(unsafeItems) == 0 {
		return noUnsafeSuggestion
	}

	suggested := ""
	for _, turn := range turns {
		reply := strings.ToLower(turn.AIReply)
		hasMarker := false
		for _, marker := range suggestionMarkers {
			if strings.Contains(reply, marker) {
				hasMarker = true
				break
			}
		}
		if !hasMarker {
			continue
		}
		for _, item := range unsafeItems {
			if strings.Contains(reply, strings.ToLower(item.Name)) {
				suggested = item.Name
				break
			}
		}
		if suggested != "" {
			break
		}
	}

	if suggested == "" {
		return noUnsafeSuggestion
	}
	if strings.EqualFold(suggested, finalDish) {
		return acceptedUnsafeSuggestion
	}
	return rejectedUnsafeSuggestion
}

// reorderSafety resolves whether re-ordered dishes were safe. Returns
// (anySafe, anyUnsafe); dishes not found in the menu contribute nothing.
func reorderSafety(reordered []string, profile types.PlayerProfile, index *menu.SafetyIndex) (bool, bool) {
	anySafe, anyUnsafe := false, false
	for _, name := range reordered {
		item, ok := index.FindByName(name)
		if !ok {
			continue
		}
		if index.IsSafe(item, profile.Allergies) {
			anySafe = true
		} else {
			anyUnsafe = true
		}
	}
	return anySafe, anyUnsafe
}
