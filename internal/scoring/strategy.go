// Package scoring converts a finished conversation transcript plus the
// final belief state into a level-calibrated assessment. Each difficulty
// level is an independent Strategy with its own criteria, weights, and
// thresholds; all criteria are evaluated against the full transcript, then
// summed, then clamped to [0, max].
package scoring

import (
	"time"

	"allersim/internal/conversation"
	"allersim/internal/menu"
	"allersim/pkg/types"
)

// Strategy scores one finished session. Implementations are pure: the same
// inputs always produce the same assessment.
type Strategy interface {
	Level() types.Level
	Score(turns []types.ConversationTurn, profile types.PlayerProfile, ctx conversation.Context, index *menu.SafetyIndex) *types.AssessmentResult
}

// ForLevel selects the strategy for a level.
func ForLevel(level types.Level) Strategy {
	switch level {
	case types.LevelIntermediate:
		return intermediateStrategy{}
	case types.LevelAdvanced:
		return advancedStrategy{}
	default:
		return beginnerStrategy{}
	}
}

// dishSafety is the resolved safety status of the final selected dish.
type dishSafety int

const (
	dishUnknown dishSafety = iota // no dish, or dish not found in the menu
	dishSafe
	dishUnsafe
)

// resolveDishSafety looks the selected dish up in the menu. An unknown dish
// yields dishUnknown: no safety information means the safety criterion is
// skipped, never penalized.
func resolveDishSafety(ctx conversation.Context, profile types.PlayerProfile, index *menu.SafetyIndex) dishSafety {
	if ctx.SelectedDish == "" {
		return dishUnknown
	}
	item, ok := index.FindByName(ctx.SelectedDish)
	if !ok {
		return dishUnknown
	}
	if index.IsSafe(item, profile.Allergies) {
		return dishSafe
	}
	return dishUnsafe
}

// ledger accumulates per-criterion points and the lock-step feedback lists.
type ledger struct {
	scores        map[string]int
	total         int
	strengths     []string
	improvements  []string
	missedActions []string
	bonuses       []string
}

func newLedger() *ledger {
	return &ledger{scores: map[string]int{}}
}

func (l *ledger) add(criterion string, points int) {
	l.scores[criterion] = points
	l.total += points
}

func (l *ledger) strength(s string)     { l.strengths = append(l.strengths, s) }
func (l *ledger) improvement(s string)  { l.improvements = append(l.improvements, s) }
func (l *ledger) missedAction(s string) { l.missedActions = append(l.missedActions, s) }
func (l *ledger) bonus(s string)        { l.bonuses = append(l.bonuses, s) }

// finish clamps the total and assembles the assessment.
func (l *ledger) finish(level types.Level, maxScore, passingScore int, critical bool) *types.AssessmentResult {
	total := l.total
	if total < 0 {
		total = 0
	}
	if total > maxScore {
		total = maxScore
	}
	return &types.AssessmentResult{
		Level:            level,
		TotalScore:       total,
		MaxPossibleScore: maxScore,
		PassingScore:     passingScore,
		Passed:           total >= passingScore,
		CriticalFailure:  critical,
		Strengths:        l.strengths,
		Improvements:     l.improvements,
		MissedActions:    l.missedActions,
		EarnedBonuses:    l.bonuses,
		DetailedScores:   l.scores,
		AssessedAt:       time.Now(),
	}
}

// isCriticalFailure applies the all-level rule: an unsafe order with no
// disclosure at all.
func isCriticalFailure(safety dishSafety, ctx conversation.Context) bool {
	return safety == dishUnsafe && !ctx.AllergiesDisclosed
}
