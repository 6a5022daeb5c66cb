package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightlink/quotedesk/internal/infra/database"
	"github.com/brightlink/quotedesk/internal/infra/http/handlers"
	"github.com/brightlink/quotedesk/internal/infra/http/middleware"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
	"github.com/brightlink/quotedesk/internal/infra/mail"
	"github.com/brightlink/quotedesk/internal/infra/queue"
	"github.com/brightlink/quotedesk/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatalf("❌ RabbitMQ connection failed: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	quoteRepo := database.NewQuoteRepository(db)
	batchJobRepo := database.NewBatchJobRepository(db)
	batchQuoteRepo := database.NewBatchQuoteRepository(db)

	// 2. Gateways and adapters
	gateway := momentum.NewClient(
		os.Getenv("MOMENTUM_BASE_URL"),
		os.Getenv("MOMENTUM_CLIENT_ID"),
		os.Getenv("MOMENTUM_CLIENT_SECRET"),
	)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), envOrInt("MAIL_PORT", 587),
		os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		envOr("MAIL_FROM", "no-reply@quotedesk.io"),
		envOr("APP_BASE_URL", "http://localhost:5173"),
	)

	// 3. UseCases
	pollUC := usecase.NewPollQuoteUseCase(quoteRepo, leadRepo, gateway, mailSender)
	createQuoteUC := usecase.NewCreateQuoteUseCase(leadRepo, quoteRepo, gateway, pollUC)
	refreshQuoteUC := usecase.NewRefreshQuoteUseCase(quoteRepo, leadRepo, gateway, mailSender)
	resubmitQuoteUC := usecase.NewResubmitQuoteUseCase(quoteRepo, gateway, pollUC)
	createBatchUC := usecase.NewCreateBatchUseCase(batchJobRepo, batchQuoteRepo)
	processBatchUC := usecase.NewProcessBatchUseCase(
		batchJobRepo, batchQuoteRepo, quoteRepo, leadRepo, gateway, mailSender,
	)

	// 4. Worker (consumes the batch queue and drives the orchestrator)
	worker := queue.NewWorker(rabbitMQ.Ch, processBatchUC)
	go worker.Start(queue.QueueName)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(leadRepo)
	quoteHandler := handlers.NewQuoteHandler(createQuoteUC, refreshQuoteUC, resubmitQuoteUC, quoteRepo)
	batchHandler := handlers.NewBatchHandler(createBatchUC, batchJobRepo, batchQuoteRepo, producer)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{envOr("CORS_ORIGIN", "http://localhost:5173"), "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.CaptureLead)
	r.Post("/quotes", quoteHandler.HandleCreate)
	r.Get("/quotes/{quoteId}", quoteHandler.HandleGet)
	r.Post("/quotes/{quoteId}/refresh", quoteHandler.HandleRefresh)
	r.Post("/quotes/{quoteId}/resubmit", quoteHandler.HandleResubmit)
	r.Post("/batches", batchHandler.HandleUpload)
	r.Get("/batches/{batchId}", batchHandler.HandleGetStatus)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 QuoteDesk API running on %s", port)
	http.ListenAndServe(port, r)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
