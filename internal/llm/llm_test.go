package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simerrors "allersim/internal/errors"
	"allersim/pkg/types"
)

func TestSemanticClassifierParsesCleanJSON(t *testing.T) {
	mock := &MockClient{Responses: []string{
		`{"intent": "food_ordering", "mentioned_allergies": ["peanuts"], "ordered_food": "Satay Chicken Skewers", "is_asking_question": false, "conversation_should_end": false, "confidence": 0.9}`,
	}}
	classifier := NewSemanticClassifier(mock)

	result, err := classifier.Analyze(context.Background(), "I'll have the satay skewers, I'm allergic to peanuts", "turn 1")
	require.NoError(t, err)
	assert.Equal(t, types.IntentFoodOrdering, result.Intent)
	assert.Equal(t, []string{"peanuts"}, result.MentionedAllergies)
	assert.Equal(t, "Satay Chicken Skewers", result.OrderedFood)
}

func TestSemanticClassifierRepairsFencedAndMalformedJSON(t *testing.T) {
	mock := &MockClient{Responses: []string{
		"Here is the analysis:\n```json\n{'intent': 'allergy_disclosure', 'mentioned_allergies': ['dairy',], 'ordered_food': null,}\n```",
	}}
	classifier := NewSemanticClassifier(mock)

	result, err := classifier.Analyze(context.Background(), "I'm allergic to dairy", "")
	require.NoError(t, err)
	assert.Equal(t, types.IntentAllergyDisclosure, result.Intent)
	assert.Equal(t, []string{"dairy"}, result.MentionedAllergies)
	assert.Empty(t, result.OrderedFood)
}

func TestSemanticClassifierNormalizesUnknownIntent(t *testing.T) {
	mock := &MockClient{Responses: []string{
		`{"intent": "chitchat", "ordered_food": "None"}`,
	}}
	classifier := NewSemanticClassifier(mock)

	result, err := classifier.Analyze(context.Background(), "nice weather", "")
	require.NoError(t, err)
	assert.Equal(t, types.IntentGeneralResponse, result.Intent)
	assert.Empty(t, result.OrderedFood)
}

func TestSemanticClassifierErrorsOnProseReply(t *testing.T) {
	mock := &MockClient{Responses: []string{"The customer is ordering food."}}
	classifier := NewSemanticClassifier(mock)

	_, err := classifier.Analyze(context.Background(), "I'll have the soup", "")
	assert.Error(t, err)
}

func TestSemanticClassifierPropagatesClientError(t *testing.T) {
	mock := &MockClient{Err: errors.New("connection refused")}
	classifier := NewSemanticClassifier(mock)

	_, err := classifier.Analyze(context.Background(), "hello", "")
	assert.Error(t, err)
}

func TestParseReplyPlainString(t *testing.T) {
	dialogue, detected := ParseReply("Of course! Our soup today is tomato and basil.")
	assert.Equal(t, "Of course! Our soup today is tomato and basil.", dialogue)
	assert.Nil(t, detected)
}

func TestParseReplyEnvelope(t *testing.T) {
	dialogue, detected := ParseReply(`{"npc_dialogue": "I must warn you, the satay contains peanuts.", "detected_allergies": ["peanuts"]}`)
	assert.Equal(t, "I must warn you, the satay contains peanuts.", dialogue)
	assert.Equal(t, []string{"peanuts"}, detected)
}

func TestParseReplyEnvelopeMissingDialogueFallsThrough(t *testing.T) {
	content := `{"detected_allergies": ["fish"]}`
	dialogue, detected := ParseReply(content)
	assert.Equal(t, content, dialogue)
	assert.Nil(t, detected)
}

func TestReplyGeneratorThreadsHistory(t *testing.T) {
	mock := &MockClient{Responses: []string{"Right away!"}}
	gen := NewReplyGenerator(mock)

	history := []types.ConversationTurn{
		{Number: 1, UserInput: "Hi", AIReply: "Welcome in!"},
	}
	profile := types.PlayerProfile{Name: "Sam", Age: 15, Allergies: []string{"peanuts"}}

	dialogue, _, err := gen.Generate(context.Background(), history, "Menu text", profile, "I'll have the soup")
	require.NoError(t, err)
	assert.Equal(t, "Right away!", dialogue)

	require.Len(t, mock.Requests, 1)
	messages := mock.Requests[0].Messages
	// system + 2 history + current input
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "Welcome in!", messages[2].Content)
	assert.Equal(t, "I'll have the soup", messages[3].Content)
}

func TestRetryClientRetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	inner := &flakyClient{failures: 2, err: simerrors.NewTransient(errors.New("503"), 503), onCall: func() { attempts++ }}
	client := NewRetryClient(inner, simerrors.RetryConfig{MaxAttempts: 3, BaseDelay: 1, MaxDelay: 1})

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestRetryClientStopsOnPermanent(t *testing.T) {
	attempts := 0
	inner := &flakyClient{failures: 5, err: simerrors.NewPermanent(errors.New("401"), 401), onCall: func() { attempts++ }}
	client := NewRetryClient(inner, simerrors.DefaultRetryConfig())

	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

type flakyClient struct {
	failures int
	calls    int
	err      error
	onCall   func()
}

func (f *flakyClient) Model() string { return "flaky" }

func (f *flakyClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if f.onCall != nil {
		f.onCall()
	}
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &CompletionResponse{Content: "ok"}, nil
}
