package chat

import (
	"context"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/httpapi"
)

const (
	opHistory   = "chat.history"
	pathHistory = "/chat/history"
)

// FetchHistory returns the conversation between user1 and user2.
func FetchHistory(ctx context.Context, api *httpapi.Client, token, user1, user2 string) ([]domain.ChatMessage, error) {
	resp, err := api.R(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{"user1": user1, "user2": user2}).
		Get(pathHistory)
	if err != nil {
		return nil, httpapi.Network(opHistory, err)
	}
	if resp.IsError() {
		return nil, httpapi.Status(opHistory, domain.KindNetwork, resp, "Failed to fetch chat history")
	}

	var messages []domain.ChatMessage
	if err := httpapi.Decode(opHistory, resp, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
