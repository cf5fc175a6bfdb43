// Package feedback turns a structured assessment into level-toned prose:
// an opening sentence picked from score bands, plus improvement tags
// rewritten into actionable sentences.
package feedback

import (
	"strings"

	"allersim/pkg/types"
)

// Tone governs which template bank is used. It never changes a number.
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneBalanced    Tone = "balanced"
	ToneChallenging Tone = "challenging"
)

// Feedback is the builder's output: the opening paragraph plus the
// rewritten lists.
type Feedback struct {
	Paragraph    string   `json:"paragraph"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Tone         Tone     `json:"tone"`
}

// ToneFor returns the fixed tone for a level.
func ToneFor(level types.Level) Tone {
	switch level {
	case types.LevelIntermediate:
		return ToneBalanced
	case types.LevelAdvanced:
		return ToneChallenging
	default:
		return ToneEncouraging
	}
}

// band is one score threshold with its opening sentence.
type band struct {
	min     int
	opening string
}

// Openings per level, highest band first. criticalOpening overrides the
// bands when the session ended in a critical failure.
var (
	beginnerBands = []band{
		{85, "Amazing job! You handled that conversation like a pro."},
		{70, "Well done! You covered the most important safety steps."},
		{50, "Good effort! A few more safety habits and you'll have this down."},
		{0, "Nice try! Let's practice the basics together again."},
	}
	intermediateBands = []band{
		{105, "Excellent work. You managed that conversation with real confidence."},
		{85, "Good session. Your safety habits are coming together."},
		{60, "A solid attempt, but some key safety steps were missing."},
		{0, "This one was rough. Let's go over what a safe order looks like."},
	}
	advancedBands = []band{
		{135, "Outstanding. You handled every part of that conversation like an expert."},
		{120, "Strong performance. You covered the advanced safety checks."},
		{90, "You passed some checks, but an advanced diner digs deeper."},
		{0, "That session missed too many safety checks. Review and retry."},
	}

	criticalOpenings = map[types.Level]string{
		types.LevelBeginner:     "Careful! You ordered something unsafe without telling the waiter about your allergies. That's the one thing we never skip.",
		types.LevelIntermediate: "Stop and reset: an unsafe order went through without any allergy disclosure. Disclosure always comes first.",
		types.LevelAdvanced:     "Critical failure: an unsafe dish was ordered with no disclosure at all. In a real restaurant this is the dangerous outcome this training exists to prevent.",
	}
)

// rewriteRule maps a keyword in a raw improvement tag onto per-level
// actionable sentences.
type rewriteRule struct {
	keywords  []string
	sentences map[types.Level]string
}

var rewriteRules = []rewriteRule{
	{
		keywords: []string{"cross", "contamination"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "Next time, ask if your food is cooked near things you're allergic to.",
			types.LevelIntermediate: "Ask the staff whether your dish shares a fryer or prep surface with your allergens.",
			types.LevelAdvanced:     "Probe cross-contact directly: shared fryers, shared grills, and how the kitchen separates allergen prep.",
		},
	},
	{
		keywords: []string{"allergies before", "disclose"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "Start by telling the waiter about your allergies, before you even look at the menu.",
			types.LevelIntermediate: "Lead with your allergies every time; it frames the whole conversation.",
			types.LevelAdvanced:     "Disclosure is step zero. Everything else in the conversation builds on it.",
		},
	},
	{
		keywords: []string{"ingredient"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "Try asking \"what's in this dish?\" before you order it.",
			types.LevelIntermediate: "Ask what's in a dish, including the sauce, before committing to it.",
			types.LevelAdvanced:     "Interrogate the full ingredient list, not just the headline items.",
		},
	},
	{
		keywords: []string{"sauce", "hidden", "stock", "dressing"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "Remember that sauces can hide allergens, so ask about them too.",
			types.LevelIntermediate: "Ask about sauces, stocks and dressings; that's where allergens hide.",
			types.LevelAdvanced:     "Hidden allergens live in preparation details: sauces, stocks, marinades, garnishes. Ask about each.",
		},
	},
	{
		keywords: []string{"warn"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "If the waiter says a dish isn't safe, pick something else.",
			types.LevelIntermediate: "Treat a waiter's warning as final: change the order.",
			types.LevelAdvanced:     "A warning is a hard stop. Cancel, verify, and re-order something confirmed safe.",
		},
	},
	{
		keywords: []string{"firmly", "needs"},
		sentences: map[types.Level]string{
			types.LevelBeginner:     "It's okay to be firm; your safety comes first.",
			types.LevelIntermediate: "Say clearly that this is a serious allergy, not a preference.",
			types.LevelAdvanced:     "Assert the stakes explicitly so staff escalate to the kitchen rather than guess.",
		},
	},
}

// Builder rewrites assessments into prose.
type Builder struct{}

// NewBuilder returns a feedback builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build selects the opening for the score band (or the critical-failure
// opening), rewrites each improvement tag into a level-styled sentence,
// and passes unmatched tags through unchanged.
func (b *Builder) Build(assessment *types.AssessmentResult, level types.Level) Feedback {
	opening := openingFor(assessment, level)

	improvements := make([]string, 0, len(assessment.Improvements))
	for _, raw := range assessment.Improvements {
		improvements = append(improvements, rewrite(raw, level))
	}

	return Feedback{
		Paragraph:    opening,
		Strengths:    append([]string(nil), assessment.Strengths...),
		Improvements: improvements,
		Tone:         ToneFor(level),
	}
}

func openingFor(assessment *types.AssessmentResult, level types.Level) string {
	if assessment.CriticalFailure {
		return criticalOpenings[level]
	}
	var bands []band
	switch level {
	case types.LevelIntermediate:
		bands = intermediateBands
	case types.LevelAdvanced:
		bands = advancedBands
	default:
		bands = beginnerBands
	}
	for _, b := range bands {
		if assessment.TotalScore >= b.min {
			return b.opening
		}
	}
	return bands[len(bands)-1].opening
}

func rewrite(raw string, level types.Level) string {
	lower := strings.ToLower(raw)
	for _, rule := range rewriteRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				if sentence, ok := rule.sentences[level]; ok {
					return sentence
				}
			}
		}
	}
	return raw
}
