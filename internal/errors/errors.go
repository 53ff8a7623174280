// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ErrValidation marks a request the caller can fix
type ErrValidation struct {
    Message string
}

func (e *ErrValidation) Error() string {
    return e.Message
}

func NewValidation(msg string) error {
    return &ErrValidation{Message: msg}
}
