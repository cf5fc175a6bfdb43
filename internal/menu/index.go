package menu

import (
	"strconv"
	"strings"

	"allersim/internal/allergen"
)

// SafetyIndex answers "is this item safe for these allergies?" over an
// immutable loaded menu. A nil index or nil menu degrades to "no
// information": lookups return nothing and nothing is reported safe, so a
// live conversation never crashes on a missing menu.
type SafetyIndex struct {
	menu *Menu
}

// NewSafetyIndex wraps a loaded menu. The menu must not be mutated after.
func NewSafetyIndex(m *Menu) *SafetyIndex {
	return &SafetyIndex{menu: m}
}

// RestaurantName returns the loaded restaurant's name, or "" when no menu
// is loaded.
func (idx *SafetyIndex) RestaurantName() string {
	if idx == nil || idx.menu == nil {
		return ""
	}
	return idx.menu.RestaurantName
}

// AllItems returns every item in menu order.
func (idx *SafetyIndex) AllItems() []Item {
	if idx == nil {
		return nil
	}
	return idx.menu.AllItems()
}

// IsSafe reports whether the item contains none of the given allergies,
// checking the union of declared and hidden allergens.
func (idx *SafetyIndex) IsSafe(item Item, allergies []string) bool {
	all := item.AllAllergens()
	for _, allergy := range allergies {
		if allergen.MatchesAny(allergy, all) {
			return false
		}
	}
	return true
}

// FindByName resolves a free-text dish name to a menu item: exact
// case-insensitive match first, then the first item whose name contains the
// query or is contained by it. Speech transcription rarely yields exact
// names, so the substring fallback is intentional; when several items share
// a substring ("Butter Chicken", "Satay Chicken Skewers" vs "chicken") the
// first in menu order wins.
func (idx *SafetyIndex) FindByName(name string) (Item, bool) {
	if idx == nil || idx.menu == nil {
		return Item{}, false
	}
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return Item{}, false
	}

	items := idx.menu.AllItems()
	for _, item := range items {
		if strings.ToLower(item.Name) == query {
			return item, true
		}
	}
	for _, item := range items {
		itemName := strings.ToLower(item.Name)
		if strings.Contains(itemName, query) || strings.Contains(query, itemName) {
			return item, true
		}
	}
	return Item{}, false
}

// SafeItems returns every item safe for the given allergies, in menu order.
func (idx *SafetyIndex) SafeItems(allergies []string) []Item {
	var safe []Item
	for _, item := range idx.AllItems() {
		if idx.IsSafe(item, allergies) {
			safe = append(safe, item)
		}
	}
	return safe
}

// UnsafeItems returns every item unsafe for the given allergies, in menu
// order.
func (idx *SafetyIndex) UnsafeItems(allergies []string) []Item {
	var unsafe []Item
	for _, item := range idx.AllItems() {
		if !idx.IsSafe(item, allergies) {
			unsafe = append(unsafe, item)
		}
	}
	return unsafe
}

// Describe renders the menu as prompt text for the reply-generation
// collaborator: section headings, item names, prices and declared
// allergens. Hidden allergens are deliberately omitted so the simulated
// waiter only volunteers them when asked.
func (idx *SafetyIndex) Describe() string {
	if idx == nil || idx.menu == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(idx.menu.RestaurantName)
	b.WriteString("\n")
	for _, section := range idx.menu.Sections {
		b.WriteString("\n## ")
		b.WriteString(section.Name)
		b.WriteString("\n")
		for _, item := range section.Items {
			b.WriteString("- ")
			b.WriteString(item.Name)
			if item.Price > 0 {
				b.WriteString(" ($" + strconv.FormatFloat(item.Price, 'f', 2, 64) + ")")
			}
			if len(item.Allergens) > 0 {
				b.WriteString(" [contains: ")
				b.WriteString(strings.Join(item.Allergens, ", "))
				b.WriteString("]")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
