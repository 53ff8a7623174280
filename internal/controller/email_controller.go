// internal/controller/email_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/blackleoventure/email-campaign-backend/internal/errors"
    "github.com/blackleoventure/email-campaign-backend/internal/repository"
    "github.com/blackleoventure/email-campaign-backend/internal/service"
)

type EmailController struct {
    Dispatch  *service.DispatchService
    Stats     *service.StatsService
    Campaigns repository.CampaignRepositoryInterface
}

// SendEmail dispatches a campaign to the resolved recipients.
func (c *EmailController) SendEmail(w http.ResponseWriter, r *http.Request) {
    var body struct {
        CampaignID string `json:"campaignId"`
        Content    struct {
            HTML string `json:"html"`
        } `json:"content"`
        Recipients string `json:"recipients"`
        Sender     string `json:"sender"`
        Subject    string `json:"subject"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        respondError(w, http.StatusBadRequest, "invalid body")
        return
    }

    result, err := c.Dispatch.SendCampaign(service.DispatchRequest{
        CampaignID: body.CampaignID,
        Sender:     body.Sender,
        Subject:    body.Subject,
        HTML:       body.Content.HTML,
        Recipients: body.Recipients,
    })
    if err != nil {
        var validation *appErrors.ErrValidation
        if errors.As(err, &validation) {
            respondError(w, http.StatusBadRequest, validation.Message)
            return
        }
        log.Println("⚠️ Failed to send campaign emails:", err)
        respondError(w, http.StatusInternalServerError, "Failed to send campaign emails")
        return
    }

    respondJSON(w, http.StatusOK, map[string]interface{}{
        "message":        "Campaign emails sent successfully",
        "campaignId":     result.CampaignID,
        "recipientCount": result.RecipientCount,
        "batchCount":     result.BatchCount,
    })
}

// GetCampaignStats returns one campaign's counters.
func (c *EmailController) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "campaignId")

    stats, err := c.Stats.CampaignStats(campaignID)
    if err != nil {
        var notFound *appErrors.ErrCampaignNotFound
        if errors.As(err, &notFound) {
            respondError(w, http.StatusNotFound, "Campaign stats not found")
            return
        }
        respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
        return
    }
    respondJSON(w, http.StatusOK, stats)
}

// GetAllCampaignStats pages through campaign stats, newest first.
func (c *EmailController) GetAllCampaignStats(w http.ResponseWriter, r *http.Request) {
    limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
    offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
    if limit < 1 {
        limit = 20
    }

    campaigns, total, err := c.Stats.AllCampaignStats(limit, offset)
    if err != nil {
        respondError(w, http.StatusInternalServerError, "Failed to fetch all email stats")
        return
    }
    respondJSON(w, http.StatusOK, map[string]interface{}{
        "totalCampaigns": total,
        "pageSize":       limit,
        "hasMore":        offset+len(campaigns) < total,
        "data":           campaigns,
    })
}

// GetRepliedEmails lists the senders who replied to a campaign.
func (c *EmailController) GetRepliedEmails(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "campaignId")

    campaign, err := c.Campaigns.GetByID(campaignID)
    if err != nil {
        var notFound *appErrors.ErrCampaignNotFound
        if errors.As(err, &notFound) {
            respondError(w, http.StatusNotFound, "Campaign not found")
            return
        }
        respondError(w, http.StatusInternalServerError, "Failed to fetch replied emails")
        return
    }

    repliedBy := campaign.RepliedBy
    if repliedBy == nil {
        repliedBy = []string{}
    }
    respondJSON(w, http.StatusOK, map[string]interface{}{
        "campaignId":    campaignID,
        "repliedEmails": repliedBy,
        "totalReplied":  len(repliedBy),
    })
}

// GetOverallStats serves the cached directory counts.
func (c *EmailController) GetOverallStats(w http.ResponseWriter, r *http.Request) {
    stats, err := c.Stats.Overall()
    if err != nil {
        respondError(w, http.StatusInternalServerError, err.Error())
        return
    }
    respondJSON(w, http.StatusOK, stats)
}

// DeleteCampaign removes a campaign and cascades to its mapping rows and
// replies.
func (c *EmailController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "campaignId")

    if err := c.Campaigns.Delete(campaignID); err != nil {
        log.Println("⚠️ Failed to delete campaign", campaignID, ":", err)
        respondError(w, http.StatusInternalServerError, "Failed to delete campaign")
        return
    }
    respondJSON(w, http.StatusOK, map[string]interface{}{
        "success": true,
        "message": "Campaign deleted successfully",
        "data":    map[string]string{"id": campaignID},
    })
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
    respondJSON(w, status, map[string]interface{}{
        "success": false,
        "message": message,
    })
}
