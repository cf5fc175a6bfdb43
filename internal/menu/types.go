// Package menu models a restaurant menu with per-item allergen data and
// answers safety queries against a player's allergy profile.
package menu

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Modifiability is the tri-state answer to "can the kitchen make this dish
// safe?". Menu JSON encodes it as true, false, or the string "sometimes".
type Modifiability int

const (
	NotModifiable Modifiability = iota
	Modifiable
	SometimesModifiable
)

func (m Modifiability) String() string {
	switch m {
	case Modifiable:
		return "yes"
	case SometimesModifiable:
		return "sometimes"
	default:
		return "no"
	}
}

// UnmarshalJSON accepts the bool|"sometimes" boundary encoding.
func (m *Modifiability) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*m = Modifiable
		} else {
			*m = NotModifiable
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "sometimes") {
			*m = SometimesModifiable
			return nil
		}
		return fmt.Errorf("menu: unknown modifiable_to_safe value %q", s)
	}
	return fmt.Errorf("menu: modifiable_to_safe must be bool or \"sometimes\"")
}

// MarshalJSON writes the boundary encoding back out.
func (m Modifiability) MarshalJSON() ([]byte, error) {
	switch m {
	case Modifiable:
		return json.Marshal(true)
	case SometimesModifiable:
		return json.Marshal("sometimes")
	default:
		return json.Marshal(false)
	}
}

// Item is a single dish. Allergens are the declared, visible ones;
// HiddenAllergens come from preparation details (sauce, stock) not implied
// by the name. Safety checks treat their union as "all allergens present".
type Item struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	Price              float64       `json:"price"`
	Allergens          []string      `json:"allergens"`
	HiddenAllergens    []string      `json:"hidden_allergens"`
	ModifiableToSafe   Modifiability `json:"modifiable_to_safe"`
	SuggestedQuestions []string      `json:"suggested_questions,omitempty"`
}

// AllAllergens returns the union of declared and hidden allergens.
func (i Item) AllAllergens() []string {
	all := make([]string, 0, len(i.Allergens)+len(i.HiddenAllergens))
	all = append(all, i.Allergens...)
	all = append(all, i.HiddenAllergens...)
	return all
}

// Section groups items under a menu heading ("Starters", "Mains").
type Section struct {
	Name  string `json:"section"`
	Items []Item `json:"items"`
}

// Menu is one restaurant's scenario menu. Loaded once per scenario and
// read-only thereafter; safe to share across sessions.
type Menu struct {
	RestaurantName string    `json:"restaurant_name"`
	Sections       []Section `json:"menu_sections"`
}

// AllItems flattens sections preserving menu order. Nil receiver yields nil.
func (m *Menu) AllItems() []Item {
	if m == nil {
		return nil
	}
	var items []Item
	for _, s := range m.Sections {
		items = append(items, s.Items...)
	}
	return items
}

// Parse decodes the scenario menu JSON boundary format.
func Parse(data []byte) (*Menu, error) {
	var m Menu
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("menu: parse: %w", err)
	}
	if m.RestaurantName == "" {
		return nil, fmt.Errorf("menu: missing restaurant_name")
	}
	return &m, nil
}
