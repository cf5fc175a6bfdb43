package scoring

import (
	"allersim/internal/conversation"
	"allersim/internal/menu"
	"allersim/pkg/types"
)

const (
	intermediateMaxScore     = 120
	intermediatePassingScore = 85
)

// intermediateStrategy expects proactive questioning on top of disclosure:
// cross-contact awareness enters the criteria and unsafe choices cost more.
type intermediateStrategy struct{}

func (intermediateStrategy) Level() types.Level { return types.LevelIntermediate }

func (intermediateStrategy) Score(turns []types.ConversationTurn, profile types.PlayerProfile, ctx conversation.Context, index *menu.SafetyIndex) *types.AssessmentResult {
	l := newLedger()
	safety := resolveDishSafety(ctx, profile, index)

	// Allergy disclosure (40).
	if ctx.AllergiesDisclosed {
		l.add("allergy_disclosure", 40)
		l.strength("Told the waiter about your allergies")
	} else {
		l.add("allergy_disclosure", 0)
		l.improvement("Tell the waiter about your allergies before ordering")
	}

	// Safe food choice (30, -35 if unsafe).
	switch safety {
	case dishSafe:
		l.add("safe_food_choice", 30)
		l.strength("Chose a dish that is safe for your allergies")
	case dishUnsafe:
		l.add("safe_food_choice", -35)
		l.improvement("Pick a dish that does not contain your allergens")
	}

	// Order decision after a safety warning (25, +10 safe reorder,
	// -10 unsafe reorder, -20 kept unsafe order).
	if ctx.SafetyWarningGiven || len(ctx.CancelledOrdersAfterWarning) > 0 || len(ctx.KeptUnsafeOrdersAfterWarning) > 0 {
		points := 0
		switch {
		case len(ctx.CancelledOrdersAfterWarning) > 0:
			points = 25
			l.strength("Changed your order after the safety warning")
			anySafe, anyUnsafe := reorderSafety(ctx.ReorderedItemsAfterCancellation, profile, index)
			if anySafe {
				points += 10
			}
			if anyUnsafe {
				points -= 10
				l.improvement("Check the new dish is safe before re-ordering")
			}
		case len(ctx.KeptUnsafeOrdersAfterWarning) > 0:
			points = -20
			l.improvement("Never keep an order the waiter warned you about")
		default:
			l.improvement("Change your order when the waiter warns you a dish is unsafe")
		}
		l.add("order_decision", points)
	}

	// Ingredient questions (15).
	if anyTurnContains(turns, ingredientKeywords) {
		l.add("ingredient_questions", 15)
		l.strength("Asked about ingredients")
	} else {
		l.add("ingredient_questions", 0)
		l.improvement("Ask questions about ingredients before choosing")
	}

	// Cross-contact questions (15).
	if anyTurnContains(turns, crossContactKeywords) {
		l.add("cross_contact_questions", 15)
		l.strength("Asked about cross-contamination")
	} else {
		l.add("cross_contact_questions", 0)
		l.improvement("Ask about cross-contamination and shared cooking equipment")
	}

	return l.finish(types.LevelIntermediate, intermediateMaxScore, intermediatePassingScore, isCriticalFailure(safety, ctx))
}
