package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/http/middleware"
	"github.com/brightlink/quotedesk/internal/usecase"
)

type QuoteHandler struct {
	CreateUC   *usecase.CreateQuoteUseCase
	RefreshUC  *usecase.RefreshQuoteUseCase
	ResubmitUC *usecase.ResubmitQuoteUseCase
	QuoteRepo  entity.QuoteRepository
}

func NewQuoteHandler(
	createUC *usecase.CreateQuoteUseCase,
	refreshUC *usecase.RefreshQuoteUseCase,
	resubmitUC *usecase.ResubmitQuoteUseCase,
	quoteRepo entity.QuoteRepository,
) *QuoteHandler {
	return &QuoteHandler{
		CreateUC:   createUC,
		RefreshUC:  refreshUC,
		ResubmitUC: resubmitUC,
		QuoteRepo:  quoteRepo,
	}
}

func (h *QuoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateQuoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	output, err := h.CreateUC.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordQuoteSubmitted("web", "error")
		if usecase.IsDomainError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		middleware.RecordIntegrationError("momentum")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	middleware.RecordQuoteSubmitted("web", string(output.Status))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(output)
}

func (h *QuoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteId")

	quote, err := h.QuoteRepo.FindByID(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, entity.ErrQuoteNotFound) {
			http.Error(w, "quote not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

// refreshResponse also tells the client how to keep polling.
type refreshResponse struct {
	Quote               *entity.Quote `json:"quote"`
	DisplayStatus       string        `json:"display_status"`
	InitialDelaySeconds int           `json:"initial_delay_seconds"`
	PollIntervalSeconds int           `json:"poll_interval_seconds"`
}

func (h *QuoteHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "quoteId")

	output, err := h.RefreshUC.Execute(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, entity.ErrQuoteNotFound) {
			http.Error(w, "quote not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if output.NewlyComplete {
		middleware.RecordQuoteCompleted()
	}
	if output.DisplayStatus == usecase.DisplayTimeout {
		middleware.RecordPollTimeout()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(refreshResponse{
		Quote:               output.Quote,
		DisplayStatus:       output.DisplayStatus,
		InitialDelaySeconds: int(usecase.InteractiveInitialDelay.Seconds()),
		PollIntervalSeconds: int(usecase.InteractiveInterval.Seconds()),
	})
}

func (h *QuoteHandler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	var input usecase.ResubmitQuoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	input.QuoteID = chi.URLParam(r, "quoteId")

	output, err := h.ResubmitUC.Execute(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrQuoteNotFound):
			http.Error(w, "quote not found", http.StatusNotFound)
		case usecase.IsDomainError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			middleware.RecordIntegrationError("momentum")
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	middleware.RecordQuoteSubmitted("resubmit", string(output.Status))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(output)
}
