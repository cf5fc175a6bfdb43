// Package session orchestrates one training conversation: it threads each
// user turn through classification, belief-state update, and reply
// generation, then scores the finished transcript exactly once.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"allersim/internal/conversation"
	"allersim/internal/feedback"
	"allersim/internal/intent"
	"allersim/internal/logging"
	"allersim/internal/menu"
	"allersim/internal/scoring"
	"allersim/pkg/types"
)

// SemanticAnalyzer is the external semantic-classification collaborator.
type SemanticAnalyzer interface {
	Analyze(ctx context.Context, utterance, contextSummary string) (*types.SemanticResult, error)
}

// ReplyProducer is the external reply-generation collaborator.
type ReplyProducer interface {
	Generate(ctx context.Context, history []types.ConversationTurn, menuText string, profile types.PlayerProfile, userInput string) (string, []string, error)
}

// Store persists a finished session.
type Store interface {
	Save(record *Record) error
}

// Record is what gets persisted at session end: the transcript plus the
// assessment.
type Record struct {
	ID         string                   `json:"id"`
	Restaurant string                   `json:"restaurant"`
	Level      types.Level              `json:"level"`
	Profile    types.PlayerProfile      `json:"profile"`
	Turns      []types.ConversationTurn `json:"turns"`
	Assessment *types.AssessmentResult  `json:"assessment"`
	Feedback   feedback.Feedback        `json:"feedback"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Engine runs one session. Turns are processed strictly sequentially; the
// belief state is replaced, never mutated, so no turn can observe a
// half-applied update. The external collaborators are optional: without
// them the engine runs fully offline on the pattern classifier and
// templated replies.
type Engine struct {
	profile    types.PlayerProfile
	level      types.Level
	index      *menu.SafetyIndex
	classifier *intent.Classifier
	updater    *conversation.Updater
	semantic   SemanticAnalyzer
	replies    ReplyProducer
	logger     logging.Logger

	context   conversation.Context
	turns     []types.ConversationTurn
	startedAt time.Time
	result    *Record
}

// Option configures an Engine.
type Option func(*Engine)

// WithSemanticAnalyzer wires the external semantic classifier.
func WithSemanticAnalyzer(s SemanticAnalyzer) Option {
	return func(e *Engine) { e.semantic = s }
}

// WithReplyProducer wires the external reply generator.
func WithReplyProducer(r ReplyProducer) Option {
	return func(e *Engine) { e.replies = r }
}

// WithLogger overrides the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithUpdater overrides the context updater (to extend warning keywords).
func WithUpdater(u *conversation.Updater) Option {
	return func(e *Engine) { e.updater = u }
}

// NewEngine starts a session. A missing player profile is the one
// unrecoverable initialization error: the conversation cannot start.
func NewEngine(profile types.PlayerProfile, level types.Level, index *menu.SafetyIndex, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(profile.Name) == "" {
		return nil, fmt.Errorf("session: player profile is required")
	}
	e := &Engine{
		profile:    profile,
		level:      level,
		index:      index,
		classifier: intent.NewClassifier(),
		updater:    conversation.NewUpdater(),
		logger:     logging.NewComponentLogger("SessionEngine"),
		context:    conversation.NewContext(),
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Context returns the current belief state.
func (e *Engine) Context() conversation.Context {
	return e.context
}

// Turns returns the transcript so far.
func (e *Engine) Turns() []types.ConversationTurn {
	return e.turns
}

// ProcessTurn ingests one user utterance and returns the waiter's reply.
// Every failure path degrades to local deterministic behavior: the turn
// always resolves with some reply and some context update.
func (e *Engine) ProcessTurn(ctx context.Context, utterance string) (string, error) {
	if e.result != nil {
		return "", fmt.Errorf("session: already finalized")
	}

	result := e.classify(ctx, utterance)

	prevReply := ""
	if n := len(e.turns); n > 0 {
		prevReply = e.turns[n-1].AIReply
	}

	reply, detected := e.reply(ctx, utterance, result)

	e.context = e.updater.Update(e.context, conversation.TurnInput{
		Utterance:   utterance,
		Result:      result,
		AIReply:     reply,
		PrevAIReply: prevReply,
	})

	allergens := result.DisclosedAllergens
	for _, d := range detected {
		dup := false
		for _, a := range allergens {
			if strings.EqualFold(a, d) {
				dup = true
				break
			}
		}
		if !dup {
			allergens = append(allergens, d)
		}
	}

	e.turns = append(e.turns, types.ConversationTurn{
		Number:            len(e.turns) + 1,
		UserInput:         utterance,
		AIReply:           reply,
		DetectedAllergens: allergens,
		Assessment:        legacyTurnAssessment(result),
		Timestamp:         time.Now(),
	})

	e.logger.Debug("turn %d: disclosure=%v order=%q question=%v",
		e.context.TurnCount, result.IsDisclosure, result.OrderedDish, result.IsQuestion)
	return reply, nil
}

// classify runs the semantic path when available, falling back entirely to
// the pattern classifier on any failure.
func (e *Engine) classify(ctx context.Context, utterance string) intent.Result {
	if e.semantic == nil {
		return e.classifier.Classify(utterance, e.profile.Allergies)
	}
	sem, err := e.semantic.Analyze(ctx, utterance, e.context.Summary())
	if err != nil {
		e.logger.Warn("semantic classification failed, using pattern classifier: %v", err)
		return e.classifier.Classify(utterance, e.profile.Allergies)
	}
	return e.classifier.ApplySemantic(utterance, e.profile.Allergies, sem)
}

// reply asks the external generator for the waiter's line, degrading to the
// templated local reply on any failure.
func (e *Engine) reply(ctx context.Context, utterance string, result intent.Result) (string, []string) {
	if e.replies != nil {
		reply, detected, err := e.replies.Generate(ctx, e.turns, e.index.Describe(), e.profile, utterance)
		if err == nil {
			return reply, detected
		}
		e.logger.Warn("reply generation failed, using fallback reply: %v", err)
	}
	return e.fallbackReply(result), nil
}

// fallbackReply is the deterministic in-character reply keyed on the
// classified turn. It still issues safety warnings, so the confirmation
// heuristic and the scoring tables behave identically offline.
func (e *Engine) fallbackReply(result intent.Result) string {
	switch {
	case result.IsOrdering && result.OrderedDish != "":
		// The waiter only knows what has been disclosed, including on this
		// very turn.
		known := append(append([]string(nil), e.context.DisclosedAllergies...), result.DisclosedAllergens...)
		if item, ok := e.index.FindByName(result.OrderedDish); ok {
			if !e.index.IsSafe(item, known) {
				return fmt.Sprintf("I'm sorry, but the %s contains %s and you mentioned you're allergic. It's not safe for you. Would you like to choose something else?",
					item.Name, strings.Join(item.AllAllergens(), ", "))
			}
		}
		return "Excellent choice! I'll get that started for you."
	case result.IsDisclosure:
		return "Thank you for letting me know. I'll make sure the kitchen is aware of your allergies."
	case result.IsQuestion:
		return "Of course, happy to help. Let me check the details with the kitchen and walk you through the menu."
	default:
		return "Welcome! Can I get you started with something, or would you like to hear about the menu?"
	}
}

// Finalize scores the finished transcript exactly once and builds the
// feedback. Subsequent calls return the same record.
func (e *Engine) Finalize() (*Record, error) {
	if e.result != nil {
		return e.result, nil
	}
	if len(e.turns) == 0 {
		return nil, fmt.Errorf("session: nothing to score")
	}

	strategy := scoring.ForLevel(e.level)
	assessment := strategy.Score(e.turns, e.profile, e.context, e.index)
	fb := feedback.NewBuilder().Build(assessment, e.level)
	assessment.DetailedFeedback = fb.Paragraph

	e.result = &Record{
		Restaurant: e.index.RestaurantName(),
		Level:      e.level,
		Profile:    e.profile,
		Turns:      e.turns,
		Assessment: assessment,
		Feedback:   fb,
		StartedAt:  e.startedAt,
		FinishedAt: time.Now(),
	}
	e.logger.Info("session finalized: score=%d/%d passed=%v critical=%v",
		assessment.TotalScore, assessment.MaxPossibleScore, assessment.Passed, assessment.CriticalFailure)
	return e.result, nil
}

// legacyTurnAssessment is the flat per-turn point ledger kept for the
// legacy fallback scoring path.
func legacyTurnAssessment(result intent.Result) types.TurnAssessment {
	points := 0
	var notes []string
	if result.IsDisclosure {
		points += 10
		notes = append(notes, "disclosed allergies")
	}
	if result.IsQuestion {
		points += 5
		notes = append(notes, "asked a question")
	}
	if result.IsOrdering {
		points += 5
		notes = append(notes, "placed an order")
	}
	return types.TurnAssessment{Points: points, Note: strings.Join(notes, ", ")}
}
