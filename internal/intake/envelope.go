// internal/intake/envelope.go
package intake

import (
    "bytes"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/blackleoventure/email-campaign-backend/internal/model"
)

// EventKind classifies an inbound webhook payload.
type EventKind string

const (
    KindSubscriptionConfirmation EventKind = "subscription_confirmation"
    KindReply                    EventKind = "reply"
    KindBounce                   EventKind = "bounce"
    KindComplaint                EventKind = "complaint"
    KindOpen                     EventKind = "open"
    KindUnknown                  EventKind = "unknown"
)

// Envelope is the outer notification wrapper. The inner payload usually
// arrives JSON-encoded in Message, but some producers post it directly.
type Envelope struct {
    Type         string          `json:"Type"`
    SubscribeURL string          `json:"SubscribeURL"`
    Token        string          `json:"Token"`
    TopicArn     string          `json:"TopicArn"`
    Message      json.RawMessage `json:"Message"`

    // Set when the inner payload was posted without a wrapper.
    NotificationType string `json:"notificationType"`
    EventType        string `json:"eventType"`

    raw []byte
}

// Notification is the inner payload for replies, bounces and complaints.
type Notification struct {
    NotificationType string          `json:"notificationType,omitempty"`
    EventType        string          `json:"eventType,omitempty"`
    Mail             Mail            `json:"mail"`
    Bounce           *Bounce         `json:"bounce,omitempty"`
    Complaint        *Complaint      `json:"complaint,omitempty"`
    Content          json.RawMessage `json:"content,omitempty"`
    Body             json.RawMessage `json:"body,omitempty"`
    HTML             string          `json:"html,omitempty"`
    Text             string          `json:"text,omitempty"`
}

type Mail struct {
    Source        string              `json:"source"`
    Destination   []string            `json:"destination"`
    Timestamp     string              `json:"timestamp"`
    MessageID     string              `json:"messageId"`
    CommonHeaders CommonHeaders       `json:"commonHeaders"`
    Headers       []model.MailHeader  `json:"headers,omitempty"`
    Tags          map[string][]string `json:"tags,omitempty"`
}

type CommonHeaders struct {
    Subject    string `json:"subject"`
    InReplyTo  string `json:"in-reply-to"`
    References string `json:"references"`
}

type Bounce struct {
    BouncedRecipients []Recipient `json:"bouncedRecipients"`
}

type Complaint struct {
    ComplainedRecipients []Recipient `json:"complainedRecipients"`
}

type Recipient struct {
    EmailAddress string `json:"emailAddress"`
}

// Event is what the webhook handlers publish to the work queue after the
// provider has been acknowledged.
type Event struct {
    Kind         EventKind     `json:"kind"`
    Notification *Notification `json:"notification,omitempty"`
    CampaignID   string        `json:"campaign_id,omitempty"`
    Recipient    string        `json:"recipient,omitempty"`
    ReceivedAt   time.Time     `json:"received_at"`
}

// Normalize parses a webhook body that may arrive either as a JSON object
// or as a JSON-encoded string containing that object.
func Normalize(body []byte) (*Envelope, error) {
    trimmed := bytes.TrimSpace(body)
    if len(trimmed) == 0 {
        return nil, fmt.Errorf("empty payload")
    }

    // Some providers double-encode the body as a JSON string.
    if trimmed[0] == '"' {
        var inner string
        if err := json.Unmarshal(trimmed, &inner); err != nil {
            return nil, fmt.Errorf("unwrapping string payload: %w", err)
        }
        trimmed = []byte(inner)
    }

    var env Envelope
    if err := json.Unmarshal(trimmed, &env); err != nil {
        return nil, fmt.Errorf("parsing envelope: %w", err)
    }
    env.raw = trimmed
    return &env, nil
}

// InnerMessage returns the bytes of the inner notification: the unwrapped
// Message field when present, otherwise the envelope body itself when it
// already carries a notification or event type.
func (e *Envelope) InnerMessage() ([]byte, error) {
    if len(e.Message) > 0 {
        msg := bytes.TrimSpace(e.Message)
        if len(msg) > 0 && msg[0] == '"' {
            var inner string
            if err := json.Unmarshal(msg, &inner); err != nil {
                return nil, fmt.Errorf("unwrapping inner message: %w", err)
            }
            return []byte(inner), nil
        }
        return msg, nil
    }
    if e.NotificationType != "" || e.EventType != "" {
        return e.raw, nil
    }
    return nil, fmt.Errorf("unrecognized payload shape")
}

// ParseNotification decodes the inner message of an envelope.
func (e *Envelope) ParseNotification() (*Notification, error) {
    inner, err := e.InnerMessage()
    if err != nil {
        return nil, err
    }
    var n Notification
    if err := json.Unmarshal(inner, &n); err != nil {
        return nil, fmt.Errorf("parsing notification: %w", err)
    }
    return &n, nil
}

// Classify maps a notification to the event kind the processor handles.
func Classify(n *Notification) EventKind {
    switch {
    case n == nil:
        return KindUnknown
    case n.NotificationType == "Received":
        return KindReply
    case n.EventType == "Bounce":
        return KindBounce
    case n.EventType == "Complaint":
        return KindComplaint
    default:
        return KindUnknown
    }
}

// OriginalMessageID extracts the best-effort message ID of the email this
// notification replies to. Header names and encodings vary by provider, so
// three sources are checked in order.
func OriginalMessageID(n *Notification) string {
    if v := n.Mail.CommonHeaders.InReplyTo; v != "" {
        return v
    }
    if refs := n.Mail.CommonHeaders.References; refs != "" {
        return strings.Fields(refs)[0]
    }
    for _, h := range n.Mail.Headers {
        if strings.EqualFold(h.Name, "In-Reply-To") {
            return h.Value
        }
    }
    return ""
}

// CampaignTag returns the campaignId tag attached at send time, or "".
func CampaignTag(n *Notification) string {
    if n == nil || n.Mail.Tags == nil {
        return ""
    }
    if ids := n.Mail.Tags["campaignId"]; len(ids) > 0 {
        return ids[0]
    }
    return ""
}

// Timestamp parses the mail timestamp, falling back to now.
func Timestamp(n *Notification) time.Time {
    if t, err := time.Parse(time.RFC3339, n.Mail.Timestamp); err == nil {
        return t
    }
    return time.Now().UTC()
}
