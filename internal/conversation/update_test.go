package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allersim/internal/intent"
)

func TestUpdateDisclosureIsMonotonic(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()

	ctx = u.Update(ctx, TurnInput{
		Utterance: "I'm allergic to peanuts",
		Result:    intent.Result{IsDisclosure: true, DisclosedAllergens: []string{"peanuts"}},
		AIReply:   "Thank you for telling me.",
	})
	require.True(t, ctx.AllergiesDisclosed)
	assert.Equal(t, []string{"peanuts"}, ctx.DisclosedAllergies)

	// A later non-disclosure turn never resets the flag.
	ctx = u.Update(ctx, TurnInput{
		Utterance: "what do you recommend?",
		Result:    intent.Result{IsQuestion: true},
		AIReply:   "The soup is lovely.",
	})
	assert.True(t, ctx.AllergiesDisclosed)

	// Duplicate disclosures are deduplicated case-insensitively.
	ctx = u.Update(ctx, TurnInput{
		Utterance: "again, allergic to Peanuts and dairy",
		Result:    intent.Result{IsDisclosure: true, DisclosedAllergens: []string{"Peanuts", "dairy"}},
		AIReply:   "Understood.",
	})
	assert.Equal(t, []string{"peanuts", "dairy"}, ctx.DisclosedAllergies)
}

func TestUpdateTurnCountStrictlyIncrements(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()
	for i := 1; i <= 5; i++ {
		ctx = u.Update(ctx, TurnInput{Utterance: "hello", AIReply: "hi"})
		assert.Equal(t, i, ctx.TurnCount)
	}
}

func TestUpdateDoesNotMutatePrevious(t *testing.T) {
	u := NewUpdater()
	first := u.Update(NewContext(), TurnInput{
		Utterance: "I'm allergic to fish",
		Result:    intent.Result{IsDisclosure: true, DisclosedAllergens: []string{"fish"}},
		AIReply:   "Noted.",
	})

	_ = u.Update(first, TurnInput{
		Utterance: "also allergic to soy",
		Result:    intent.Result{IsDisclosure: true, DisclosedAllergens: []string{"soy"}},
		AIReply:   "Noted.",
	})

	assert.Equal(t, []string{"fish"}, first.DisclosedAllergies)
	assert.Equal(t, 1, first.TurnCount)
	assert.False(t, first.TopicsCovered[TopicIngredientsAsked])
}

func TestUpdateOrderLastWriteWins(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()

	ctx = u.Update(ctx, TurnInput{
		Utterance: "I'll have the soup",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Tomato & Basil Soup"},
		AIReply:   "Anything else?",
	})
	assert.Equal(t, "Tomato & Basil Soup", ctx.SelectedDish)
	assert.False(t, ctx.ConfirmedDish, "a question reply leaves the order pending")

	ctx = u.Update(ctx, TurnInput{
		Utterance: "actually, give me the salad",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Garden Salad"},
		AIReply:   "Excellent choice.",
	})
	assert.Equal(t, "Garden Salad", ctx.SelectedDish)
	assert.True(t, ctx.ConfirmedDish, "a plain reply confirms the order")
}

func TestUpdateMenuInquiryDoesNotOrder(t *testing.T) {
	u := NewUpdater()
	ctx := u.Update(NewContext(), TurnInput{
		Utterance: "what do you recommend, I want something light",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Salad"},
		AIReply:   "The salad is light.",
	})
	assert.Empty(t, ctx.SelectedDish)
}

func TestUpdateWarningBlocksConfirmation(t *testing.T) {
	u := NewUpdater()
	ctx := u.Update(NewContext(), TurnInput{
		Utterance: "I'll have the satay skewers",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Satay Chicken Skewers"},
		AIReply:   "I must warn you, that contains peanuts and is not safe for you.",
	})
	assert.Equal(t, "Satay Chicken Skewers", ctx.SelectedDish)
	assert.False(t, ctx.ConfirmedDish)
	assert.True(t, ctx.SafetyWarningGiven)
}

func TestUpdateConfigurableWarningKeywords(t *testing.T) {
	u := &Updater{WarningKeywords: []string{"hazardous"}}
	ctx := u.Update(NewContext(), TurnInput{
		Utterance: "I'll have the satay",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Satay"},
		AIReply:   "That would be hazardous for you.",
	})
	assert.False(t, ctx.ConfirmedDish)
	assert.True(t, ctx.SafetyWarningGiven)
}

func TestUpdateCancelAndReorderAfterWarning(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()

	ctx = u.Update(ctx, TurnInput{
		Utterance: "I'll have the satay skewers",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Satay Chicken Skewers"},
		AIReply:   "That contains peanuts, it's not safe for you.",
	})
	warningReply := "That contains peanuts, it's not safe for you."

	ctx = u.Update(ctx, TurnInput{
		Utterance:   "oh! then I'll take the garden salad",
		Result:      intent.Result{IsOrdering: true, OrderedDish: "Garden Salad"},
		AIReply:     "Much better choice.",
		PrevAIReply: warningReply,
	})

	assert.Equal(t, []string{"Satay Chicken Skewers"}, ctx.CancelledOrdersAfterWarning)
	assert.Equal(t, []string{"Garden Salad"}, ctx.ReorderedItemsAfterCancellation)
	assert.Equal(t, "Garden Salad", ctx.SelectedDish)
	assert.True(t, ctx.ConfirmedDish)
	assert.Empty(t, ctx.KeptUnsafeOrdersAfterWarning)
}

func TestUpdateKeptUnsafeOrderAfterWarning(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()

	warningReply := "I'm sorry, that contains peanuts."
	ctx = u.Update(ctx, TurnInput{
		Utterance: "I'll have the satay skewers",
		Result:    intent.Result{IsOrdering: true, OrderedDish: "Satay Chicken Skewers"},
		AIReply:   warningReply,
	})

	ctx = u.Update(ctx, TurnInput{
		Utterance:   "I'll keep it anyway",
		Result:      intent.Result{IsOrdering: true},
		AIReply:     "As you wish.",
		PrevAIReply: warningReply,
	})

	assert.Equal(t, []string{"Satay Chicken Skewers"}, ctx.KeptUnsafeOrdersAfterWarning)
	assert.Empty(t, ctx.CancelledOrdersAfterWarning)
}

func TestUpdateTopicFlagsAccumulate(t *testing.T) {
	u := NewUpdater()
	ctx := NewContext()

	ctx = u.Update(ctx, TurnInput{
		Utterance: "does the soup contain dairy?",
		Result:    intent.Result{IsQuestion: true},
		AIReply:   "No dairy in the soup.",
	})
	assert.True(t, ctx.TopicsCovered[TopicIngredientsAsked])

	ctx = u.Update(ctx, TurnInput{
		Utterance: "great, I'm allergic to dairy by the way",
		Result:    intent.Result{IsDisclosure: true, DisclosedAllergens: []string{"dairy"}},
		AIReply:   "Noted.",
	})
	assert.True(t, ctx.TopicsCovered[TopicAllergiesDisclosed])
	assert.True(t, ctx.TopicsCovered[TopicIngredientsAsked], "topic flags are never cleared")
}

func TestContextSummary(t *testing.T) {
	ctx := Context{
		AllergiesDisclosed: true,
		DisclosedAllergies: []string{"peanuts"},
		SelectedDish:       "Garden Salad",
		ConfirmedDish:      true,
		TurnCount:          3,
	}
	summary := ctx.Summary()
	assert.Contains(t, summary, "peanuts")
	assert.Contains(t, summary, "Garden Salad")
	assert.Contains(t, summary, "Turn 3")

	assert.Contains(t, NewContext().Summary(), "not disclosed")
}
