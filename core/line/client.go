// Package line is the LINE Messaging API channel: webhook intake, signature
// check, event translation and reply/push delivery.
package line

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// MaxMessagesPerCall is the platform limit of messages in one reply or push.
const MaxMessagesPerCall = 5

// APIError is a non-2xx answer from the Messaging API.
type APIError struct {
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line %s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// HTTPStatus lets the dispatcher classify the failure.
func (e *APIError) HTTPStatus() int { return e.Status }

// Messenger delivers rendered messages.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error
	Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface, retryKey string) error
}

// Client wraps the generated Messaging API client.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

// ClientOption customises NewClient.
type ClientOption func(*[]messaging_api.MessagingApiAPIOption)

// WithEndpoint points the client at another API base URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(opts *[]messaging_api.MessagingApiAPIOption) {
		*opts = append(*opts, messaging_api.WithEndpoint(endpoint))
	}
}

// NewClient builds a client for the channel access token. httpClient may be nil.
func NewClient(channelToken string, httpClient *http.Client, options ...ClientOption) (*Client, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if httpClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(httpClient))
	}
	for _, o := range options {
		o(&opts)
	}
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply answers an event with its one-time reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error {
	resp, _, err := c.api.WithContext(ctx).ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	return wrapAPIError("reply", resp, err)
}

// Push sends messages to a user outside the reply window. retryKey makes
// repeated attempts idempotent on the platform side.
func (c *Client) Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface, retryKey string) error {
	resp, _, err := c.api.WithContext(ctx).PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: msgs,
	}, retryKey)
	if resp != nil && resp.StatusCode == http.StatusConflict {
		// the platform already accepted a request with this retry key
		return nil
	}
	return wrapAPIError("push", resp, err)
}

// NewRetryKey returns a fresh X-Line-Retry-Key value.
func NewRetryKey() string {
	return uuid.NewString()
}

func wrapAPIError(op string, resp *http.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return fmt.Errorf("line %s: %w", op, err)
}
