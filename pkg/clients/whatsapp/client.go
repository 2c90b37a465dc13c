// Package whatsapp sends owner notifications through the Meta WhatsApp Cloud API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/rentledger/internal/config"
)

// maxTextLength is the Cloud API limit for a text message body.
const maxTextLength = 4096

// Sender posts a single text message and returns the message id.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api: status=%d code=%d: %s", e.Status, e.Code, e.Message)
}

// Client is the resty-backed Sender.
type Client struct {
	http          *resty.Client
	phoneNumberID string
}

// NewClient builds a client for cfg. Throttling and server errors are retried twice.
func NewClient(cfg config.WhatsAppConfig) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	rc := resty.New().
		SetBaseURL(base+"/"+cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: rc, phoneNumberID: cfg.PhoneNumberID}
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type sendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText posts body to the recipient number.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", errors.New("send whatsapp message: recipient is empty")
	}

	result := new(sendResult)
	failure := new(errorBody)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textMessage{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(result).
		SetError(failure).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.IsError() {
		return "", &APIError{Status: resp.StatusCode(), Code: failure.Error.Code, Message: failure.Error.Message}
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// Notifier delivers month-close summaries to the owner's number.
type Notifier struct {
	sender Sender
	owner  string
}

// NewNotifier addresses every message to owner.
func NewNotifier(sender Sender, owner string) *Notifier {
	return &Notifier{sender: sender, owner: owner}
}

// Notify sends message, split on line boundaries when it exceeds the text limit.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	for i, part := range chunk(message, maxTextLength) {
		if _, err := n.sender.SendText(ctx, n.owner, part); err != nil {
			return fmt.Errorf("notify owner (part %d): %w", i+1, err)
		}
	}
	return nil
}

func chunk(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var (
		parts []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, line := range strings.SplitAfter(message, "\n") {
		for len(line) > limit {
			flush()
			parts = append(parts, line[:limit])
			line = line[limit:]
		}
		if cur.Len()+len(line) > limit {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return parts
}
