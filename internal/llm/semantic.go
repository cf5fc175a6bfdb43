package llm

import (
	"context"
	"fmt"
	"strings"

	"allersim/internal/logging"
	"allersim/pkg/types"
)

const semanticSystemPrompt = `You analyze one customer utterance from a restaurant conversation.
Respond with only a JSON object:
{
  "intent": "food_ordering" | "allergy_disclosure" | "question" | "general_response" | "greeting",
  "mentioned_allergies": [list of allergy names mentioned, empty if none],
  "ordered_food": "dish name or null",
  "is_asking_question": true | false,
  "conversation_should_end": true | false,
  "confidence": 0.0 to 1.0
}
If the customer both discloses an allergy and orders food, the intent is
"food_ordering" and mentioned_allergies must still list every allergy.`

// SemanticClassifier asks the external model for a structured intent
// analysis of one utterance. Its output is raw and untrusted; the intent
// package validates it against local signals before it touches the belief
// state.
type SemanticClassifier struct {
	client Client
	logger logging.Logger
}

// NewSemanticClassifier wraps a completion client.
func NewSemanticClassifier(client Client) *SemanticClassifier {
	return &SemanticClassifier{
		client: client,
		logger: logging.NewComponentLogger("SemanticClassifier"),
	}
}

// Analyze returns the model's semantic reading of the utterance given a
// short summary of the conversation so far. Any transport or parse failure
// is returned as an error; the caller falls back to the pattern classifier.
func (s *SemanticClassifier) Analyze(ctx context.Context, utterance, contextSummary string) (*types.SemanticResult, error) {
	user := fmt.Sprintf("Conversation so far:\n%s\n\nCustomer utterance:\n%q", contextSummary, utterance)

	resp, err := s.client.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: semanticSystemPrompt},
			{Role: "user", Content: user},
		},
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic classify: %w", err)
	}

	raw, ok := extractJSONObject(resp.Content)
	if !ok {
		return nil, fmt.Errorf("semantic classify: no JSON object in reply: %s", truncate(resp.Content, 120))
	}

	var result types.SemanticResult
	if err := unmarshalRepaired(raw, &result); err != nil {
		s.logger.Warn("semantic result unparseable: %v", err)
		return nil, err
	}

	result.Intent = normalizeIntent(result.Intent)
	result.OrderedFood = cleanNullString(result.OrderedFood)
	s.logger.Debug("semantic intent=%s allergies=%v food=%q question=%v",
		result.Intent, result.MentionedAllergies, result.OrderedFood, result.IsAskingQuestion)
	return &result, nil
}

func normalizeIntent(intent types.SemanticIntent) types.SemanticIntent {
	switch types.SemanticIntent(strings.ToLower(strings.TrimSpace(string(intent)))) {
	case types.IntentFoodOrdering:
		return types.IntentFoodOrdering
	case types.IntentAllergyDisclosure:
		return types.IntentAllergyDisclosure
	case types.IntentQuestion:
		return types.IntentQuestion
	case types.IntentGreeting:
		return types.IntentGreeting
	default:
		return types.IntentGeneralResponse
	}
}

// cleanNullString drops the literal "null"/"none" strings models emit for
// absent values.
func cleanNullString(s string) string {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "null", "none", "n/a", "":
		return ""
	default:
		return trimmed
	}
}
