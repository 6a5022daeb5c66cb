package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/queue"
	"github.com/brightlink/quotedesk/internal/infra/upload"
	"github.com/brightlink/quotedesk/internal/usecase"
)

const maxUploadBytes = 5 << 20 // 5 MB is plenty for 500 address rows

type BatchHandler struct {
	CreateUC *usecase.CreateBatchUseCase
	JobRepo  entity.BatchJobRepository
	ItemRepo entity.BatchQuoteRepository
	Producer queue.ProducerInterface
}

func NewBatchHandler(
	createUC *usecase.CreateBatchUseCase,
	jobRepo entity.BatchJobRepository,
	itemRepo entity.BatchQuoteRepository,
	producer queue.ProducerInterface,
) *BatchHandler {
	return &BatchHandler{
		CreateUC: createUC,
		JobRepo:  jobRepo,
		ItemRepo: itemRepo,
		Producer: producer,
	}
}

type uploadResponse struct {
	BatchJobID string `json:"batch_job_id"`
	TotalCount int    `json:"total_count"`
	Status     string `json:"status"`
}

// HandleUpload accepts the CSV, persists the job + rows, publishes to the
// queue and returns 202. Processing starts after this request has returned.
func (h *BatchHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	contactName := r.FormValue("contact_name")
	contactEmail := r.FormValue("contact_email")
	notifyEmail := r.FormValue("notify_email") == "true"

	if contactName == "" {
		http.Error(w, "contact_name is required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(contactEmail); err != nil {
		http.Error(w, "contact_email is invalid", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := upload.ParseLocations(file)
	if err != nil {
		http.Error(w, "could not parse file: "+err.Error(), http.StatusBadRequest)
		return
	}

	job, err := h.CreateUC.Execute(ctx, usecase.CreateBatchInput{
		FileName:     header.Filename,
		ContactName:  contactName,
		ContactEmail: contactEmail,
		NotifyEmail:  notifyEmail,
		Rows:         rows,
	})
	if err != nil {
		log.Printf("❌ Batch upload: persist failed: %v", err)
		http.Error(w, "could not store batch upload", http.StatusInternalServerError)
		return
	}

	err = h.Producer.PublishBatchJob(ctx, queue.BatchJobPayload{
		BatchJobID: job.ID,
		FileName:   job.FileName,
		Origin:     "UPLOAD",
	})
	if err != nil {
		// Job stays pending; it can be re-published by ops without losing
		// anything, so tell the client instead of pretending it is queued.
		log.Printf("❌ Batch upload: publish failed for job %s: %v", job.ID, err)
		http.Error(w, "batch stored but could not be queued, try again later", http.StatusServiceUnavailable)
		return
	}

	log.Printf("📤 Batch job %s queued (%d rows, file %s)", job.ID, len(rows), job.FileName)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(uploadResponse{
		BatchJobID: job.ID,
		TotalCount: job.TotalCount,
		Status:     string(job.Status),
	})
}

type batchStatusResponse struct {
	Job   *entity.BatchJob     `json:"job"`
	Items []*entity.BatchQuote `json:"items"`
}

func (h *BatchHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID := chi.URLParam(r, "batchId")

	job, err := h.JobRepo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, entity.ErrBatchJobNotFound) {
			http.Error(w, "batch job not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items, err := h.ItemRepo.ListByJob(ctx, batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batchStatusResponse{Job: job, Items: items})
}
