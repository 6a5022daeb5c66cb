package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/brightlink/quotedesk/internal/entity"
)

// LeadHandler captures storefront leads before they commit to a full quote.
type LeadHandler struct {
	leadRepo    entity.LeadRepository
	rateLimiter *RateLimiter
}

func NewLeadHandler(leadRepo entity.LeadRepository) *LeadHandler {
	return &LeadHandler{
		leadRepo:    leadRepo,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

type CaptureLeadRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

type CaptureLeadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeLeadResponse(w, http.StatusTooManyRequests, CaptureLeadResponse{
			Success: false,
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var req CaptureLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLeadResponse(w, http.StatusBadRequest, CaptureLeadResponse{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}

	if req.Email == "" {
		writeLeadResponse(w, http.StatusBadRequest, CaptureLeadResponse{
			Success: false,
			Message: "Email is required",
		})
		return
	}

	lead := entity.NewLead(req.Name, req.Email, req.Phone, req.Company)
	if err := h.leadRepo.Upsert(ctx, lead); err != nil {
		writeLeadResponse(w, http.StatusInternalServerError, CaptureLeadResponse{
			Success: false,
			Message: "Failed to capture lead",
		})
		return
	}

	writeLeadResponse(w, http.StatusOK, CaptureLeadResponse{Success: true})
}

func writeLeadResponse(w http.ResponseWriter, code int, resp CaptureLeadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
