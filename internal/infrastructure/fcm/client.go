package fcm

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Client wraps Firebase Cloud Messaging. A client built without
// credentials is disabled: sends become no-op errors instead of panics so
// the engine runs fine without push delivery configured.
type Client struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewClient reads Firebase credentials from FIREBASE_CREDENTIALS_PATH or,
// failing that, from the FIREBASE_CREDENTIALS_JSON inline blob.
func NewClient(ctx context.Context, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "fcm").Logger()

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		if credJSON == "" {
			log.Warn().Msg("no Firebase credentials found, push notifications disabled")
			return &Client{log: log}, nil
		}

		tmpFile, err := os.CreateTemp("", "firebase-credentials-*.json")
		if err != nil {
			return nil, fmt.Errorf("create credentials temp file: %w", err)
		}
		defer tmpFile.Close()

		if _, err := tmpFile.Write([]byte(credJSON)); err != nil {
			return nil, fmt.Errorf("write credentials: %w", err)
		}
		credPath = tmpFile.Name()
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Info().Msg("Firebase Cloud Messaging initialized")
	return &Client{client: client, log: log}, nil
}

// IsEnabled reports whether credentials were configured.
func (c *Client) IsEnabled() bool {
	return c.client != nil
}

// SendMulticast pushes one notification to every token. Individual token
// failures are reported in the response, not as an error.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if c.client == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	if len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "signal_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("send multicast: %w", err)
	}
	c.log.Info().Int("success", response.SuccessCount).Int("failure", response.FailureCount).Msg("push notifications sent")
	return nil
}
