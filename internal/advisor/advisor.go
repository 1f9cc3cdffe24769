// Package advisor turns stored score snapshots into career recommendations
// and career-guidance chat replies using a generative model.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/llm"
)

const (
	apologyReply    = "I'm sorry, I encountered an error while processing your request. Please try again later."
	redirectReply   = "I'm your career guidance counselor. Please ask me questions related to your education or career path."
	acknowledgement = "I understand my role as a career guidance counselor. I will only answer questions related to education and careers, using the student's assessment results to provide personalized advice."

	defaultCareer      = "Unknown Career"
	defaultMatch       = 80
	defaultDescription = "No description available"
)

// SnapshotSource supplies one snapshot per catalog assessment.
type SnapshotSource interface {
	Snapshots(ctx context.Context, userID string) ([]domain.Snapshot, error)
}

// Advisor asks the model for recommendations and chat replies. A nil
// provider puts it in offline mode.
type Advisor struct {
	snapshots SnapshotSource
	provider  llm.Provider
	logger    *zap.Logger
}

func New(snapshots SnapshotSource, provider llm.Provider, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{snapshots: snapshots, provider: provider, logger: logger}
}

var recommendationSchema = &llm.Schema{
	Name:        "career-recommendations",
	Description: "Career recommendations derived from assessment results",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"career":      map[string]any{"type": "string"},
				"match":       map[string]any{"type": "number"},
				"description": map[string]any{"type": "string"},
			},
		},
	},
}

type rawRecommendation struct {
	Career      *string  `json:"career"`
	Match       *float64 `json:"match"`
	Description *string  `json:"description"`
}

// Recommend returns career suggestions for the user. Every failure is
// logged and yields an empty list.
func (a *Advisor) Recommend(ctx context.Context, userID string) []domain.Recommendation {
	recs, err := a.recommend(ctx, userID)
	if err != nil {
		a.logger.Warn("career recommendations unavailable", zap.String("user_id", userID), zap.Error(err))
		return []domain.Recommendation{}
	}
	return recs
}

func (a *Advisor) recommend(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	if a.provider == nil {
		return nil, &llm.ErrProviderUnavailable{}
	}
	snaps, err := a.snapshots.Snapshots(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: recommendationPrompt(snaps)}},
		Schema:      recommendationSchema,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	content := resp.Content
	if len(content) == 0 {
		content = json.RawMessage(llm.StripCodeFences(resp.Text))
	}
	if err := llm.Validate(recommendationSchema, content); err != nil {
		return nil, err
	}

	var raw []rawRecommendation
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: content, Err: err}
	}
	out := make([]domain.Recommendation, len(raw))
	for i, r := range raw {
		out[i] = domain.Recommendation{Career: defaultCareer, Match: defaultMatch, Description: defaultDescription}
		if r.Career != nil && strings.TrimSpace(*r.Career) != "" {
			out[i].Career = *r.Career
		}
		if r.Match != nil {
			out[i].Match = *r.Match
		}
		if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
			out[i].Description = *r.Description
		}
	}
	return out, nil
}

// Chat answers the last message of a conversation. Provider failures come
// back as an apology with IsError set; only an empty conversation errors.
func (a *Advisor) Chat(ctx context.Context, userID string, conversation []domain.ChatMessage) (domain.ChatReply, error) {
	if len(conversation) == 0 {
		return domain.ChatReply{}, domain.ErrEmptyConversation
	}
	if a.provider == nil {
		return offlineReply(conversation[len(conversation)-1].Content), nil
	}

	snaps, err := a.snapshots.Snapshots(ctx, userID)
	if err != nil {
		a.logger.Warn("chat snapshots unavailable", zap.String("user_id", userID), zap.Error(err))
		return apology(), nil
	}

	messages := make([]llm.Message, 0, len(conversation)+2)
	messages = append(messages,
		llm.Message{Role: llm.RoleUser, Content: chatSystemPrompt(snaps)},
		llm.Message{Role: llm.RoleAssistant, Content: acknowledgement},
	)
	for _, m := range conversation {
		role := llm.RoleUser
		if m.Role == domain.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		a.logger.Warn("chat reply failed", zap.String("user_id", userID), zap.Error(err))
		return apology(), nil
	}
	return domain.ChatReply{
		Message: domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: resp.Text},
	}, nil
}

func apology() domain.ChatReply {
	return domain.ChatReply{
		Message: domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: apologyReply},
		IsError: true,
	}
}
