package types

import (
	"strings"
	"time"
)

// Level selects which scoring rule set and feedback tone apply to a session.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel maps a user-supplied string onto a Level, defaulting to
// beginner for anything unrecognized.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelIntermediate:
		return LevelIntermediate
	case LevelAdvanced:
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

// PlayerProfile describes the trainee. Allergies are free-text names as the
// user declared them ("peanuts", "Dairy"). Immutable per session.
type PlayerProfile struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Allergies []string `json:"allergies"`
}

// TurnAssessment is the legacy per-turn score kept on each turn for the
// fallback scoring path.
type TurnAssessment struct {
	Points int    `json:"points"`
	Note   string `json:"note,omitempty"`
}

// ConversationTurn is one exchange in the transcript: what the user said,
// what the waiter replied, and what the engine detected for that turn.
// Turns are append-only and 1-based.
type ConversationTurn struct {
	Number            int            `json:"number"`
	UserInput         string         `json:"user_input"`
	AIReply           string         `json:"ai_reply"`
	DetectedAllergens []string       `json:"detected_allergens,omitempty"`
	Assessment        TurnAssessment `json:"assessment"`
	Timestamp         time.Time      `json:"timestamp"`
}

// AssessmentResult is the terminal data product of a session: the scoring
// engine's criterion ledger plus the feedback builder's prose. Created once
// at session end, immutable thereafter.
type AssessmentResult struct {
	Level            Level          `json:"level"`
	TotalScore       int            `json:"total_score"`
	MaxPossibleScore int            `json:"max_possible_score"`
	PassingScore     int            `json:"passing_score"`
	Passed           bool           `json:"passed"`
	CriticalFailure  bool           `json:"critical_failure"`
	Strengths        []string       `json:"strengths"`
	Improvements     []string       `json:"improvements"`
	MissedActions    []string       `json:"missed_actions,omitempty"`
	EarnedBonuses    []string       `json:"earned_bonuses,omitempty"`
	DetailedScores   map[string]int `json:"detailed_scores"`
	DetailedFeedback string         `json:"detailed_feedback"`
	AssessedAt       time.Time      `json:"assessed_at"`
}

// SemanticIntent is the intent label returned by the external semantic
// classifier collaborator.
type SemanticIntent string

const (
	IntentFoodOrdering      SemanticIntent = "food_ordering"
	IntentAllergyDisclosure SemanticIntent = "allergy_disclosure"
	IntentQuestion          SemanticIntent = "question"
	IntentGeneralResponse   SemanticIntent = "general_response"
	IntentGreeting          SemanticIntent = "greeting"
)

// SemanticResult is the validated JSON output of the semantic classifier
// collaborator for one utterance.
type SemanticResult struct {
	Intent                SemanticIntent `json:"intent"`
	MentionedAllergies    []string       `json:"mentioned_allergies"`
	OrderedFood           string         `json:"ordered_food"`
	IsAskingQuestion      bool           `json:"is_asking_question"`
	ConversationShouldEnd bool           `json:"conversation_should_end"`
	Confidence            float64        `json:"confidence"`
}
