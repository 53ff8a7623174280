package notification

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Confirmer completes a notification-topic subscription handshake. The
// webhook ack for a SubscriptionConfirmation reflects this call's outcome.
type Confirmer interface {
	ConfirmSubscription(subscribeURL, token, topicArn string) error
}

// HTTPConfirmer confirms by fetching the signed SubscribeURL, which is how
// the provider completes the handshake without an SDK.
type HTTPConfirmer struct {
	Client *http.Client
}

func NewHTTPConfirmer() *HTTPConfirmer {
	return &HTTPConfirmer{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *HTTPConfirmer) ConfirmSubscription(subscribeURL, token, topicArn string) error {
	if subscribeURL == "" {
		return fmt.Errorf("missing SubscribeURL")
	}
	resp, err := c.Client.Get(subscribeURL)
	if err != nil {
		return fmt.Errorf("confirming subscription for %s: %w", topicArn, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("confirming subscription for %s: status %d", topicArn, resp.StatusCode)
	}
	return nil
}

var _ Confirmer = (*HTTPConfirmer)(nil)
