// internal/controller/webhook_controller.go
package controller

import (
    "encoding/base64"
    "encoding/json"
    "io"
    "log"
    "net/http"
    "time"

    "github.com/blackleoventure/email-campaign-backend/internal/intake"
    "github.com/blackleoventure/email-campaign-backend/internal/notification"
    "github.com/blackleoventure/email-campaign-backend/internal/queue"
)

// trackingPixelPNG is the fixed 1x1 transparent image returned for every
// open-tracking hit, whatever happens to the tracking data afterwards.
var trackingPixelPNG, _ = base64.StdEncoding.DecodeString(
    "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMCAO+ip1sAAAAASUVORK5CYII=")

// WebhookController acknowledges delivery-provider webhooks and hands the
// classified events to the work queue. Acks are unconditional and sent
// exactly once; only the subscription-confirmation path reflects a
// downstream outcome.
type WebhookController struct {
    Queue     queue.Queue
    Confirmer notification.Confirmer
}

// ReceiveEmail handles reply notifications and subscription confirmations.
func (c *WebhookController) ReceiveEmail(w http.ResponseWriter, r *http.Request) {
    body, err := io.ReadAll(r.Body)
    if err != nil {
        log.Println("⚠️ Failed to read webhook body:", err)
        ackText(w, "Notification received")
        return
    }

    env, err := intake.Normalize(body)
    if err != nil {
        // Ack anyway: the provider will not improve the payload by retrying.
        log.Println("⚠️ Dropping malformed webhook payload:", err)
        ackText(w, "Notification received")
        return
    }

    if env.Type == "SubscriptionConfirmation" {
        if err := c.Confirmer.ConfirmSubscription(env.SubscribeURL, env.Token, env.TopicArn); err != nil {
            log.Println("⚠️ Subscription confirmation failed:", err)
            http.Error(w, "Failed to confirm SNS subscription", http.StatusInternalServerError)
            return
        }
        ackText(w, "SNS subscription confirmed successfully")
        return
    }

    // Ack before any processing; everything past this point is
    // fire-and-forget.
    ackText(w, "Notification received")
    c.publishNotification(env)
}

// SNSEvents handles bounce and complaint event notifications.
func (c *WebhookController) SNSEvents(w http.ResponseWriter, r *http.Request) {
    body, err := io.ReadAll(r.Body)

    ackText(w, "OK")
    if err != nil {
        log.Println("⚠️ Failed to read event body:", err)
        return
    }

    env, err := intake.Normalize(body)
    if err != nil {
        log.Println("⚠️ Dropping malformed event payload:", err)
        return
    }
    c.publishNotification(env)
}

// TrackOpen serves the tracking pixel. The image goes out first and always;
// counting happens behind it, and a missing campaignId skips processing
// entirely.
func (c *WebhookController) TrackOpen(w http.ResponseWriter, r *http.Request) {
    campaignID := r.URL.Query().Get("campaignId")
    recipient := r.URL.Query().Get("recipient")

    w.Header().Set("Content-Type", "image/png")
    w.Write(trackingPixelPNG)
    if f, ok := w.(http.Flusher); ok {
        f.Flush()
    }

    if campaignID == "" || recipient == "" {
        return
    }
    c.publish(intake.Event{
        Kind:       intake.KindOpen,
        CampaignID: campaignID,
        Recipient:  recipient,
        ReceivedAt: time.Now().UTC(),
    })
}

func (c *WebhookController) publishNotification(env *intake.Envelope) {
    n, err := env.ParseNotification()
    if err != nil {
        log.Println("⚠️ Dropping unparseable notification:", err)
        return
    }
    kind := intake.Classify(n)
    if kind == intake.KindUnknown {
        log.Println("⚠️ Dropping notification of unknown type")
        return
    }
    c.publish(intake.Event{
        Kind:         kind,
        Notification: n,
        ReceivedAt:   time.Now().UTC(),
    })
}

func (c *WebhookController) publish(evt intake.Event) {
    payload, err := json.Marshal(evt)
    if err != nil {
        log.Println("⚠️ Failed to encode event:", err)
        return
    }
    if err := c.Queue.Publish(queue.EventsTopic, payload); err != nil {
        // The ack already went out; a lost event is logged, never surfaced.
        log.Println("⚠️ Failed to enqueue event:", err)
    }
}

func ackText(w http.ResponseWriter, msg string) {
    w.WriteHeader(http.StatusOK)
    w.Write([]byte(msg))
}
