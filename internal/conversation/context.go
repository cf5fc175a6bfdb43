// Package conversation holds the accumulating belief state of one training
// session and the state machine that updates it turn by turn.
package conversation

import (
	"strconv"
	"strings"
)

// Topic keys accumulated in Context.TopicsCovered.
const (
	TopicAllergiesDisclosed = "allergies_disclosed"
	TopicDishSelected       = "dish_selected"
	TopicIngredientsAsked   = "ingredients_asked"
)

// Context is the belief state about what the user has disclosed and
// ordered. It is never mutated in place: Updater.Update returns a new value
// each turn, so a turn in flight can never observe a half-applied update.
type Context struct {
	AllergiesDisclosed bool            `json:"allergies_disclosed"`
	DisclosedAllergies []string        `json:"disclosed_allergies"`
	SelectedDish       string          `json:"selected_dish,omitempty"`
	ConfirmedDish      bool            `json:"confirmed_dish"`
	TurnCount          int             `json:"turn_count"`
	TopicsCovered      map[string]bool `json:"topics_covered"`

	// Advanced-level bookkeeping, consumed only by the scoring engine.
	SafetyWarningGiven              bool     `json:"safety_warning_given"`
	CancelledOrdersAfterWarning     []string `json:"cancelled_orders_after_warning,omitempty"`
	KeptUnsafeOrdersAfterWarning    []string `json:"kept_unsafe_orders_after_warning,omitempty"`
	ReorderedItemsAfterCancellation []string `json:"reordered_items_after_cancellation,omitempty"`
}

// NewContext returns the empty belief state for a fresh session.
func NewContext() Context {
	return Context{TopicsCovered: map[string]bool{}}
}

// clone copies the context so the update never aliases the previous value's
// slices or map.
func (c Context) clone() Context {
	next := c
	next.DisclosedAllergies = append([]string(nil), c.DisclosedAllergies...)
	next.CancelledOrdersAfterWarning = append([]string(nil), c.CancelledOrdersAfterWarning...)
	next.KeptUnsafeOrdersAfterWarning = append([]string(nil), c.KeptUnsafeOrdersAfterWarning...)
	next.ReorderedItemsAfterCancellation = append([]string(nil), c.ReorderedItemsAfterCancellation...)
	next.TopicsCovered = make(map[string]bool, len(c.TopicsCovered))
	for k, v := range c.TopicsCovered {
		next.TopicsCovered[k] = v
	}
	return next
}

// HasDisclosed reports whether a specific allergy has been disclosed,
// by plain case-insensitive comparison.
func (c Context) HasDisclosed(allergy string) bool {
	for _, a := range c.DisclosedAllergies {
		if strings.EqualFold(a, allergy) {
			return true
		}
	}
	return false
}

// Summary renders the belief state as a short prompt fragment for the
// external collaborators.
func (c Context) Summary() string {
	var b strings.Builder
	if c.AllergiesDisclosed {
		b.WriteString("Customer disclosed allergies: ")
		if len(c.DisclosedAllergies) == 0 {
			b.WriteString("none (explicitly no allergies)")
		} else {
			b.WriteString(strings.Join(c.DisclosedAllergies, ", "))
		}
		b.WriteString(". ")
	} else {
		b.WriteString("Customer has not disclosed any allergies yet. ")
	}
	if c.SelectedDish != "" {
		b.WriteString("Current order: " + c.SelectedDish)
		if c.ConfirmedDish {
			b.WriteString(" (confirmed)")
		}
		b.WriteString(". ")
	}
	b.WriteString("Turn " + strconv.Itoa(c.TurnCount) + ".")
	return b.String()
}
