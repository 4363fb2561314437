package firebase

import (
	"context"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"talkie/internal/usecase"
)

// MessagingClient adapts the FCM client to the engines' PushSender contract,
// mapping SDK delivery errors to the error codes the dispatcher prunes on.
type MessagingClient struct {
	client *messaging.Client
}

func NewMessagingClient(client *messaging.Client) *MessagingClient {
	return &MessagingClient{
		client: client,
	}
}

func (m *MessagingClient) SendMulticast(ctx context.Context, tokens []string, payload usecase.Payload) ([]usecase.SendResult, error) {
	response, err := m.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	})
	if err != nil {
		return nil, err
	}

	results := make([]usecase.SendResult, len(response.Responses))
	for i, resp := range response.Responses {
		result := usecase.SendResult{Success: resp.Success}
		if resp.Error != nil {
			switch {
			case messaging.IsRegistrationTokenNotRegistered(resp.Error):
				result.ErrorCode = usecase.PushErrUnregistered
			case errorutils.IsInvalidArgument(resp.Error):
				result.ErrorCode = usecase.PushErrInvalidArgument
			}
		}
		results[i] = result
	}

	return results, nil
}
