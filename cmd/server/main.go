// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/blackleoventure/email-campaign-backend/internal/controller"
	"github.com/blackleoventure/email-campaign-backend/internal/db"
	"github.com/blackleoventure/email-campaign-backend/internal/mailer"
	"github.com/blackleoventure/email-campaign-backend/internal/notification"
	"github.com/blackleoventure/email-campaign-backend/internal/queue"
	"github.com/blackleoventure/email-campaign-backend/internal/repository"
	"github.com/blackleoventure/email-campaign-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	mappingRepo := &repository.MappingRepository{DB: db.DB}
	orphanRepo := &repository.OrphanRepository{DB: db.DB}
	investorRepo := &repository.InvestorRepository{DB: db.DB}
	directoryRepo := &repository.DirectoryRepository{DB: db.DB}

	q := newQueue()

	processor := &service.Processor{
		Campaigns: campaignRepo,
		Orphans:   orphanRepo,
		Engine: &service.CorrelationEngine{
			Mappings:  mappingRepo,
			Campaigns: campaignRepo,
		},
	}
	queue.StartEventSubscriber(q, processor)

	dispatchService := &service.DispatchService{
		Campaigns: campaignRepo,
		Mappings:  mappingRepo,
		Investors: investorRepo,
		Mailer:    newMailer(),
		BaseURL:   envOr("BASE_URL", "http://localhost:8080"),
	}
	statsService := service.NewStatsService(campaignRepo, directoryRepo)

	emailController := &controller.EmailController{
		Dispatch:  dispatchService,
		Stats:     statsService,
		Campaigns: campaignRepo,
	}
	webhookController := &controller.WebhookController{
		Queue:     q,
		Confirmer: notification.NewHTTPConfirmer(),
	}

	r := chi.NewRouter()

	// Dispatch and webhook routes
	r.Post("/send-email", emailController.SendEmail)
	r.Post("/receive-email", webhookController.ReceiveEmail)
	r.Get("/track-open", webhookController.TrackOpen)
	r.Post("/sns-email-events", webhookController.SNSEvents)

	// Stats routes
	r.Get("/email-stats", emailController.GetAllCampaignStats)
	r.Get("/email-stats/{campaignId}", emailController.GetCampaignStats)
	r.Get("/campaigns/{campaignId}/replies", emailController.GetRepliedEmails)
	r.Delete("/campaigns/{campaignId}", emailController.DeleteCampaign)
	r.Get("/stats", emailController.GetOverallStats)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to the Email Campaign API!"))
	})

	port := envOr("PORT", "8080")
	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

// newQueue picks the broker-backed queue when AMQP_URL is set so events
// survive a restart; otherwise processing stays in-process.
func newQueue() queue.Queue {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		log.Println("⚠️ AMQP_URL not set, using in-memory queue")
		return queue.NewInMemoryQueue()
	}
	q, err := queue.NewAMQPQueue(url)
	if err != nil {
		log.Fatalf("failed to connect to AMQP: %v", err)
	}
	return q
}

func newMailer() mailer.Mailer {
	domain := envOr("MAIL_DOMAIN", "mail.blackleoventure.com")
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("⚠️ SMTP_HOST not set, outbound mail is dry-run only")
		return &mailer.LogMailer{Domain: domain}
	}
	return mailer.NewSMTPMailer(
		host,
		envOr("SMTP_PORT", "587"),
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
		domain,
		envOr("REPLY_TO", "replies@blackleoventure.com"),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
