package momentum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// refreshMargin forces re-auth a bit before the token really expires, so a
// request never goes out with a token about to die mid-flight.
const refreshMargin = 60 * time.Second

// AuthenticationError: credentials missing or rejected by the aggregator.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "momentum authentication failed: " + e.Reason
}

// Client talks to the Momentum carrier-aggregation API. The token cache is
// owned by the instance (not a package global) so replicas and tests each get
// their own.
type Client struct {
	HTTPClient   *http.Client
	BaseURL      string
	ClientID     string
	ClientSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

func (c *Client) ensureAuthenticated(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(refreshMargin).Before(c.tokenExpiry) {
		return c.token, nil
	}

	if c.ClientID == "" || c.ClientSecret == "" {
		return "", &AuthenticationError{Reason: "credentials not configured"}
	}

	log.Println("🔄 [Momentum] Renewing token...")

	body, _ := json.Marshal(authRequest{ClientID: c.ClientID, ClientSecret: c.ClientSecret})

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/auth/token", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("momentum auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [Momentum] Auth rejected (%d): %s", resp.StatusCode, string(raw))
		return "", &AuthenticationError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var data authResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("momentum auth decode: %w", err)
	}

	exp := data.ExpiresIn
	if exp == 0 {
		exp = 3600 // upstream default is 1h
	}
	c.token = data.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(exp) * time.Second)

	log.Println("✅ [Momentum] Token renewed")
	return c.token, nil
}

// SubmitQuoteRequest creates a quote request upstream. A 400-class answer is
// a validation failure the user can fix (bad address, unsupported speed), so
// it comes back as SubmitResult{Failed: true} instead of an error. Anything
// else non-2xx is a hard error.
func (c *Client) SubmitQuoteRequest(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	payload := submitRequest{
		Term:          input.Term,
		Speed:         input.Speed,
		StreetAddress: input.StreetAddress,
		City:          input.City,
		State:         input.State,
		ZipCode:       input.ZipCode,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal quote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/quote-requests", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("momentum submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var apiErr apiError
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.text()
		if msg == "" {
			msg = fmt.Sprintf("upstream rejected the request (status %d)", resp.StatusCode)
		}
		log.Printf("⚠️ [Momentum] Validation failure: %s", msg)
		return &SubmitResult{Failed: true, ErrorMessage: msg}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [Momentum] Submit error (%d): %s", resp.StatusCode, string(raw))
		return nil, fmt.Errorf("momentum submit failed (status %d)", resp.StatusCode)
	}

	var response submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("momentum submit decode: %w", err)
	}

	return &SubmitResult{QuoteRequestID: response.QuoteRequestID}, nil
}

// CheckStatus fetches the current result set for a request. Carriers answer
// independently, so the list grows and reorders across polls. Entries without
// strictly-positive MRC are not priced yet and are dropped; the rest are
// sorted cheapest-first. Complete only when at least one priced entry exists
// and every returned entry reports a terminal carrier status.
func (c *Client) CheckStatus(ctx context.Context, requestID string) (*StatusResult, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/quote-requests/"+requestID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("momentum status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [Momentum] Status error (%d): %s", resp.StatusCode, string(raw))
		return nil, fmt.Errorf("momentum status failed (status %d)", resp.StatusCode)
	}

	var response statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("momentum status decode: %w", err)
	}

	allTerminal := len(response.Quotes) > 0
	var priced []CarrierQuote
	for _, wq := range response.Quotes {
		if !isTerminalCarrierStatus(wq.CarrierStatus) {
			allTerminal = false
		}
		if float64(wq.MRC) <= 0 {
			continue // not priced yet
		}
		priced = append(priced, CarrierQuote{
			CarrierName: wq.CarrierName,
			ProductName: wq.ProductName,
			MRC:         float64(wq.MRC),
			NRC:         float64(wq.NRC),
			Status:      wq.CarrierStatus,
		})
	}

	sort.Slice(priced, func(i, j int) bool { return priced[i].MRC < priced[j].MRC })

	result := &StatusResult{
		QuoteRequestID: response.QuoteRequestID,
		Complete:       allTerminal && len(priced) > 0,
		Quotes:         priced,
	}
	if len(priced) > 0 {
		result.Best = &priced[0]
	}
	return result, nil
}

func isTerminalCarrierStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed", "done", "error", "failed", "no_coverage":
		return true
	}
	return false
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "QuoteDesk/1.0")
}
