package notify

import (
	"context"
	"fmt"

	pubnub "github.com/pubnub/go/v7"
)

// publishFunc sends message on a PubNub channel
type publishFunc func(channel string, message interface{}) error

// PubNubNotifierConfig contains PubNub credentials
type PubNubNotifierConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

// PubNubNotifier pushes notifications to the per-user channel "user-<id>"
type PubNubNotifier struct {
	publish publishFunc
}

// NewPubNubNotifier creates a PubNub client and wraps it
func NewPubNubNotifier(cfg *PubNubNotifierConfig) (*PubNubNotifier, error) {
	if cfg == nil || cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		return nil, fmt.Errorf("pubnub publish and subscribe keys are required")
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "booking-engine"
	}

	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey
	pn := pubnub.NewPubNub(pnConfig)

	return newPubNubNotifier(func(channel string, message interface{}) error {
		_, _, err := pn.Publish().Channel(channel).Message(message).Execute()
		return err
	}), nil
}

func newPubNubNotifier(publish publishFunc) *PubNubNotifier {
	return &PubNubNotifier{publish: publish}
}

// Channel returns the per-user channel name
func Channel(userID string) string {
	return "user-" + userID
}

// Notify publishes to the user's channel
func (n *PubNubNotifier) Notify(ctx context.Context, userID, eventType string, payload map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := map[string]interface{}{
		"type": eventType,
		"data": payload,
	}
	if err := n.publish(Channel(userID), message); err != nil {
		return fmt.Errorf("failed to publish to pubnub: %w", err)
	}
	return nil
}

// Close is a no-op; the PubNub client holds no pooled resources for publishing
func (n *PubNubNotifier) Close() error {
	return nil
}

// Ensure PubNubNotifier implements Notifier
var _ Notifier = (*PubNubNotifier)(nil)
