package llm

import (
	"context"
	"fmt"
	"strings"

	"allersim/internal/logging"
	"allersim/pkg/types"
)

const replySystemPrompt = `You are a friendly, professional waiter at the restaurant below.
Stay in character. Be warm but concise. If the customer has disclosed an
allergy and asks for or has chosen a dish containing it, warn them clearly.
Menu:
%s

Customer profile: %s, age %d.

Reply either with plain dialogue, or with a JSON object
{"npc_dialogue": "...", "detected_allergies": ["..."]}.`

// ReplyEnvelope is the structured variant of the waiter reply.
type ReplyEnvelope struct {
	NPCDialogue       string   `json:"npc_dialogue"`
	DetectedAllergies []string `json:"detected_allergies"`
}

// ReplyGenerator produces the simulated waiter's next line from the
// conversation history, the menu text, and the player profile.
type ReplyGenerator struct {
	client Client
	logger logging.Logger
}

// NewReplyGenerator wraps a completion client.
func NewReplyGenerator(client Client) *ReplyGenerator {
	return &ReplyGenerator{
		client: client,
		logger: logging.NewComponentLogger("ReplyGenerator"),
	}
}

// Generate returns the waiter's reply plus any allergens the model reports
// having detected in the user's latest input. The model may answer with a
// plain string or the JSON envelope; both shapes are accepted.
func (g *ReplyGenerator) Generate(ctx context.Context, history []types.ConversationTurn, menuText string, profile types.PlayerProfile, userInput string) (string, []string, error) {
	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(replySystemPrompt, menuText, profile.Name, profile.Age)},
	}
	for _, turn := range history {
		messages = append(messages,
			Message{Role: "user", Content: turn.UserInput},
			Message{Role: "assistant", Content: turn.AIReply},
		)
	}
	messages = append(messages, Message{Role: "user", Content: userInput})

	resp, err := g.client.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   250,
	})
	if err != nil {
		return "", nil, fmt.Errorf("reply generation: %w", err)
	}

	dialogue, detected := ParseReply(resp.Content)
	if dialogue == "" {
		return "", nil, fmt.Errorf("reply generation: empty dialogue in reply")
	}
	return dialogue, detected, nil
}

// ParseReply extracts the waiter dialogue from either reply shape. A JSON
// envelope missing npc_dialogue falls back to treating the whole content as
// dialogue, so a half-structured reply still keeps the conversation moving.
func ParseReply(content string) (string, []string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", nil
	}

	raw, ok := extractJSONObject(trimmed)
	if ok {
		var envelope ReplyEnvelope
		if err := unmarshalRepaired(raw, &envelope); err == nil && strings.TrimSpace(envelope.NPCDialogue) != "" {
			return strings.TrimSpace(envelope.NPCDialogue), envelope.DetectedAllergies
		}
	}
	return trimmed, nil
}
