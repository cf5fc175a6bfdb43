package scoring

import (
	"allersim/internal/conversation"
	"allersim/internal/menu"
	"allersim/pkg/types"
)

const (
	beginnerMaxScore     = 100
	beginnerPassingScore = 70
)

// beginnerStrategy keeps the bar low: disclosing at all and picking a safe
// dish is most of the score, politeness earns a small bonus.
type beginnerStrategy struct{}

func (beginnerStrategy) Level() types.Level { return types.LevelBeginner }

func (beginnerStrategy) Score(turns []types.ConversationTurn, profile types.PlayerProfile, ctx conversation.Context, index *menu.SafetyIndex) *types.AssessmentResult {
	l := newLedger()
	safety := resolveDishSafety(ctx, profile, index)

	// Allergy disclosure (50).
	if ctx.AllergiesDisclosed {
		l.add("allergy_disclosure", 50)
		l.strength("Told the waiter about your allergies")
	} else {
		l.add("allergy_disclosure", 0)
		l.improvement("Tell the waiter about your allergies before ordering")
	}

	// Safe food choice (30, -30 if unsafe). Unknown dish means no safety
	// information: skipped, not penalized.
	switch safety {
	case dishSafe:
		l.add("safe_food_choice", 30)
		l.strength("Chose a dish that is safe for your allergies")
	case dishUnsafe:
		l.add("safe_food_choice", -30)
		l.improvement("Pick a dish that does not contain your allergens")
	}

	// Order decision after a safety warning (20, plus/minus 10 for the
	// reorder). Only applies when a warning actually happened.
	if ctx.SafetyWarningGiven || len(ctx.CancelledOrdersAfterWarning) > 0 || len(ctx.KeptUnsafeOrdersAfterWarning) > 0 {
		points := 0
		if len(ctx.CancelledOrdersAfterWarning) > 0 {
			points = 20
			l.strength("Changed your order after the safety warning")
			anySafe, anyUnsafe := reorderSafety(ctx.ReorderedItemsAfterCancellation, profile, index)
			if anySafe {
				points += 10
			}
			if anyUnsafe {
				points -= 10
				l.improvement("Check the new dish is safe before re-ordering")
			}
		} else {
			l.improvement("Change your order when the waiter warns you a dish is unsafe")
		}
		l.add("order_decision", points)
	}

	// Ingredient questions (10).
	if anyTurnContains(turns, ingredientKeywords) {
		l.add("ingredient_questions", 10)
		l.strength("Asked about ingredients")
	} else {
		l.add("ingredient_questions", 0)
		l.improvement("Ask questions about ingredients before choosing")
	}

	// Politeness bonus (10): a bonus, so absence is not called out.
	if anyTurnContains(turns, politenessKeywords) {
		l.add("politeness_bonus", 10)
		l.strength("Spoke politely with the waiter")
	}

	return l.finish(types.LevelBeginner, beginnerMaxScore, beginnerPassingScore, isCriticalFailure(safety, ctx))
}
