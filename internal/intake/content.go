// internal/intake/content.go
package intake

import (
    "encoding/base64"
    "encoding/json"
    "io"
    "strings"

    _ "github.com/emersion/go-message/charset"
    "github.com/emersion/go-message/mail"
)

const noContent = "No body content available"

// contentPart matches the {html, text} shapes providers nest the body in.
// Each field may itself be a plain string or a {data: "..."} object.
type contentPart struct {
    HTML json.RawMessage `json:"html"`
    Text json.RawMessage `json:"text"`
}

// ExtractContent pulls the reply body out of a notification. Providers
// disagree on where the body lives, so every known location is tried in
// order before giving up.
func ExtractContent(n *Notification) string {
    if part, ok := decodePart(n.Content); ok {
        if s := partText(part); s != "" {
            return s
        }
    }
    if part, ok := decodePart(n.Body); ok {
        if s := partText(part); s != "" {
            return s
        }
    }
    if n.HTML != "" {
        return n.HTML
    }
    if n.Text != "" {
        return n.Text
    }

    // Last attempt: content as a bare string, possibly base64-encoded raw
    // RFC 822 mail.
    var raw string
    if err := json.Unmarshal(n.Content, &raw); err == nil && raw != "" {
        if body := extractMIMEBody(raw); body != "" {
            return body
        }
        return raw
    }

    return noContent
}

func decodePart(raw json.RawMessage) (*contentPart, bool) {
    if len(raw) == 0 {
        return nil, false
    }
    var part contentPart
    if err := json.Unmarshal(raw, &part); err != nil {
        return nil, false
    }
    return &part, true
}

func partText(part *contentPart) string {
    if s := fieldText(part.HTML); s != "" {
        return s
    }
    return fieldText(part.Text)
}

// fieldText accepts either "body..." or {"data": "body..."}.
func fieldText(raw json.RawMessage) string {
    if len(raw) == 0 {
        return ""
    }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil {
        return s
    }
    var wrapped struct {
        Data string `json:"data"`
    }
    if err := json.Unmarshal(raw, &wrapped); err == nil {
        return wrapped.Data
    }
    return ""
}

// extractMIMEBody parses a raw RFC 822 message and returns its text/plain
// part, falling back to text/html. Returns "" when the input is not a
// parseable message.
func extractMIMEBody(raw string) string {
    decoded := raw
    if b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw)); err == nil {
        decoded = string(b)
    }

    mr, err := mail.CreateReader(strings.NewReader(decoded))
    if err != nil {
        return ""
    }

    var html string
    for {
        p, err := mr.NextPart()
        if err == io.EOF {
            break
        }
        if err != nil {
            return ""
        }
        h, ok := p.Header.(*mail.InlineHeader)
        if !ok {
            continue
        }
        ct, _, err := h.ContentType()
        if err != nil {
            continue
        }
        b, err := io.ReadAll(p.Body)
        if err != nil {
            return ""
        }
        switch ct {
        case "text/plain":
            return strings.TrimSpace(string(b))
        case "text/html":
            html = strings.TrimSpace(string(b))
        }
    }
    return html
}
