package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"allersim/pkg/types"
)

func assessment(level types.Level, score int, critical bool, improvements ...string) *types.AssessmentResult {
	return &types.AssessmentResult{
		Level:           level,
		TotalScore:      score,
		CriticalFailure: critical,
		Strengths:       []string{"Told the waiter about your allergies"},
		Improvements:    improvements,
	}
}

func TestToneIsFixedPerLevel(t *testing.T) {
	assert.Equal(t, ToneEncouraging, ToneFor(types.LevelBeginner))
	assert.Equal(t, ToneBalanced, ToneFor(types.LevelIntermediate))
	assert.Equal(t, ToneChallenging, ToneFor(types.LevelAdvanced))
}

func TestOpeningScoreBands(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		level types.Level
		score int
		want  string
	}{
		{types.LevelBeginner, 90, beginnerBands[0].opening},
		{types.LevelBeginner, 70, beginnerBands[1].opening},
		{types.LevelBeginner, 55, beginnerBands[2].opening},
		{types.LevelBeginner, 10, beginnerBands[3].opening},
		{types.LevelAdvanced, 140, advancedBands[0].opening},
		{types.LevelAdvanced, 120, advancedBands[1].opening},
		{types.LevelAdvanced, 95, advancedBands[2].opening},
		{types.LevelAdvanced, 0, advancedBands[3].opening},
	}
	for _, tt := range tests {
		fb := b.Build(assessment(tt.level, tt.score, false), tt.level)
		assert.Equal(t, tt.want, fb.Paragraph, "level %s score %d", tt.level, tt.score)
	}
}

func TestCriticalFailureOverridesBands(t *testing.T) {
	b := NewBuilder()
	fb := b.Build(assessment(types.LevelAdvanced, 140, true), types.LevelAdvanced)
	assert.Equal(t, criticalOpenings[types.LevelAdvanced], fb.Paragraph)
}

func TestImprovementRewritingPerLevel(t *testing.T) {
	b := NewBuilder()
	raw := "Ask about cross-contamination and shared cooking equipment"

	beginner := b.Build(assessment(types.LevelBeginner, 60, false, raw), types.LevelBeginner)
	advanced := b.Build(assessment(types.LevelAdvanced, 60, false, raw), types.LevelAdvanced)

	assert.Contains(t, beginner.Improvements[0], "cooked near")
	assert.Contains(t, advanced.Improvements[0], "shared fryers")
	assert.NotEqual(t, beginner.Improvements[0], advanced.Improvements[0])
}

func TestUnmatchedImprovementPassesThrough(t *testing.T) {
	b := NewBuilder()
	raw := "Practice speaking up sooner"
	fb := b.Build(assessment(types.LevelBeginner, 60, false, raw), types.LevelBeginner)
	assert.Equal(t, []string{raw}, fb.Improvements)
}

func TestStrengthsAreCopiedNotAliased(t *testing.T) {
	b := NewBuilder()
	a := assessment(types.LevelBeginner, 80, false)
	fb := b.Build(a, types.LevelBeginner)
	fb.Strengths[0] = "mutated"
	assert.Equal(t, "Told the waiter about your allergies", a.Strengths[0])
}
