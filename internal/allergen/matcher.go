// Package allergen matches free-text allergy names against menu-declared
// allergen names, absorbing the synonym and phrasing drift that speech
// transcription produces ("dairy" vs "milk", "nuts" vs "tree nuts (may
// contain traces)").
package allergen

import (
	"regexp"
	"strings"
)

// synonyms maps each canonical term to menu terms that mean the same
// thing. Matches consults the table with both arguments, so the mapping is
// symmetric without reverse keys. Keys must stay exact canonical terms:
// a looser key like "tree nuts" would let the containment check on its
// values match unrelated allergens ("peanuts" contains "nuts").
var synonyms = map[string][]string{
	"dairy":     {"milk"},
	"nuts":      {"tree nuts", "tree nut"},
	"shellfish": {"crustaceans", "molluscs"},
	"wheat":     {"gluten"},
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	nonLetter     = regexp.MustCompile(`[^a-z ]`)
)

// Normalize lowercases, strips parenthetical asides and everything that is
// not a letter or space, and trims. It is exported so the menu index can
// normalize once when comparing many entries.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = parenthetical.ReplaceAllString(s, "")
	s = nonLetter.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Matches reports whether a user-declared allergy refers to the same
// allergen as a menu-declared entry. Pure and total: equality after
// normalization, then substring containment either direction, then the
// synonym table.
func Matches(userAllergy, itemAllergen string) bool {
	user := Normalize(userAllergy)
	item := Normalize(itemAllergen)
	if user == "" || item == "" {
		return false
	}

	if user == item {
		return true
	}

	// "nuts" should match "tree nuts" and vice versa.
	if strings.Contains(item, user) || strings.Contains(user, item) {
		return true
	}

	if values, ok := synonyms[user]; ok {
		for _, v := range values {
			if strings.Contains(item, v) {
				return true
			}
		}
	}
	if values, ok := synonyms[item]; ok {
		for _, v := range values {
			if strings.Contains(user, v) {
				return true
			}
		}
	}

	return false
}

// MatchesAny reports whether the allergy matches any entry in allergens.
func MatchesAny(userAllergy string, allergens []string) bool {
	for _, a := range allergens {
		if Matches(userAllergy, a) {
			return true
		}
	}
	return false
}
