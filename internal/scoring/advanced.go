package scoring

import (
	"allersim/internal/conversation"
	"allersim/internal/menu"
	"allersim/pkg/types"
)

const (
	advancedMaxScore     = 150
	advancedPassingScore = 120
)

// advancedStrategy demands the full safety repertoire: hidden allergens,
// preparation methods, assertiveness, and correct reactions to unsafe
// suggestions all carry points, and a critical failure collapses the score.
type advancedStrategy struct{}

func (advancedStrategy) Level() types.Level { return types.LevelAdvanced }

func (advancedStrategy) Score(turns []types.ConversationTurn, profile types.PlayerProfile, ctx conversation.Context, index *menu.SafetyIndex) *types.AssessmentResult {
	l := newLedger()
	safety := resolveDishSafety(ctx, profile, index)

	// Allergy disclosure (30).
	if ctx.AllergiesDisclosed {
		l.add("allergy_disclosure", 30)
		l.strength("Told the waiter about your allergies")
	} else {
		l.add("allergy_disclosure", 0)
		l.missedAction("Disclose your allergies before anything else")
	}

	// Safe food choice (30, -50 if unsafe).
	switch safety {
	case dishSafe:
		l.add("safe_food_choice", 30)
		l.strength("Chose a dish that is safe for your allergies")
	case dishUnsafe:
		l.add("safe_food_choice", -50)
		l.improvement("Pick a dish that does not contain your allergens")
	}

	// Order decision after a safety warning (30, +20 safe reorder,
	// -30 unsafe reorder, -40 kept unsafe order).
	if ctx.SafetyWarningGiven || len(ctx.CancelledOrdersAfterWarning) > 0 || len(ctx.KeptUnsafeOrdersAfterWarning) > 0 {
		points := 0
		switch {
		case len(ctx.KeptUnsafeOrdersAfterWarning) > 0:
			points = -40
			l.improvement("Never keep an order the waiter warned you about")
		case len(ctx.CancelledOrdersAfterWarning) > 0:
			points = 30
			l.strength("Cancelled the unsafe order after the warning")
			anySafe, anyUnsafe := reorderSafety(ctx.ReorderedItemsAfterCancellation, profile, index)
			if anySafe {
				points += 20
				l.strength("Re-ordered a safe dish")
			}
			if anyUnsafe {
				points -= 30
				l.improvement("Check the new dish is safe before re-ordering")
			}
		default:
			l.missedAction("Act on the waiter's safety warning")
		}
		l.add("order_decision", points)
	}

	// Ingredient inquiry (20).
	if anyTurnContains(turns, ingredientKeywords) {
		l.add("ingredient_inquiry", 20)
		l.strength("Asked about ingredients")
	} else {
		l.add("ingredient_inquiry", 0)
		l.missedAction("Ask what is in a dish before ordering it")
	}

	// Cross-contact awareness (20).
	if anyTurnContains(turns, crossContactKeywords) {
		l.add("cross_contact_awareness", 20)
		l.strength("Asked about cross-contamination")
	} else {
		l.add("cross_contact_awareness", 0)
		l.improvement("Ask about cross-contamination and shared cooking equipment")
	}

	// Preparation-method check (15).
	if anyTurnContains(turns, preparationKeywords) {
		l.add("preparation_method", 15)
		l.strength("Asked how the dish is prepared")
	} else {
		l.add("preparation_method", 0)
		l.missedAction("Ask how the dish is prepared")
	}

	// Hidden-allergen questions (20).
	if anyTurnContains(turns, hiddenAllergenKeywords) {
		l.add("hidden_allergen_questions", 20)
		l.strength("Asked about sauces and hidden ingredients")
	} else {
		l.add("hidden_allergen_questions", 0)
		l.improvement("Ask about sauces, stocks and dressings where allergens hide")
	}

	// Reaction to an unsafe suggestion (20, or 10 when none was offered).
	switch detectUnsafeSuggestion(turns, profile, index, ctx.SelectedDish) {
	case rejectedUnsafeSuggestion:
		l.add("unsafe_suggestion_reaction", 20)
		l.strength("Turned down a suggestion that was not safe for you")
	case acceptedUnsafeSuggestion:
		l.add("unsafe_suggestion_reaction", 0)
		l.improvement("Decline suggestions that contain your allergens")
	case noUnsafeSuggestion:
		l.add("unsafe_suggestion_reaction", 10)
	}

	// Assertiveness (10).
	if anyTurnContains(turns, assertivenessKeywords) {
		l.add("assertiveness", 10)
		l.strength("Was clear and firm about your needs")
	} else {
		l.add("assertiveness", 0)
		l.improvement("State your needs firmly so the staff take them seriously")
	}

	// Bonuses for specific positive patterns.
	if anyTurnContains(turns, kitchenVerifyKeywords) {
		l.add("bonus_kitchen_verification", 5)
		l.bonus("Asked the waiter to verify with the kitchen")
	}
	if len(turns) >= 4 {
		l.add("bonus_engagement", 5)
		l.bonus("Held a full conversation instead of rushing the order")
	}

	critical := isCriticalFailure(safety, ctx)
	if critical {
		// 90% penalty: ordering unsafe without ever disclosing collapses
		// the score regardless of everything else.
		l.total = l.total / 10
	}

	return l.finish(types.LevelAdvanced, advancedMaxScore, advancedPassingScore, critical)
}
