package momentum

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SubmitInput is what the usecases hand us; the wire payload is private.
type SubmitInput struct {
	StreetAddress string
	City          string
	State         string
	ZipCode       string
	Speed         string // Mbps
	Term          string // months
}

// SubmitResult: Failed=true means the upstream rejected the request itself
// (bad address etc). That is a quote-level outcome, not an error.
type SubmitResult struct {
	QuoteRequestID string
	Failed         bool
	ErrorMessage   string
}

// CarrierQuote is one carrier's priced (or not yet priced) response.
type CarrierQuote struct {
	CarrierName string  `json:"carrier_name"`
	ProductName string  `json:"product_name"`
	MRC         float64 `json:"mrc"`
	NRC         float64 `json:"nrc"`
	Status      string  `json:"status"`
}

// StatusResult aggregates one poll. Quotes is filtered to strictly-positive
// pricing and sorted ascending by MRC, so Best (when present) is Quotes[0].
type StatusResult struct {
	QuoteRequestID string
	Complete       bool
	Quotes         []CarrierQuote
	Best           *CarrierQuote
}

// --- Wire payloads ---

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type submitRequest struct {
	Term          string `json:"term"`
	Speed         string `json:"speed"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
}

type submitResponse struct {
	QuoteRequestID string `json:"quoteRequestId"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type statusResponse struct {
	QuoteRequestID string        `json:"quoteRequestId"`
	Quotes         []wireCarrier `json:"quotes"`
}

type wireCarrier struct {
	CarrierStatus string    `json:"carrierStatus"`
	MRC           flexFloat `json:"mrc"`
	NRC           flexFloat `json:"nrc"`
	CarrierName   string    `json:"carrierName"`
	ProductName   string    `json:"productName"`
}

// flexFloat tolerates numbers that arrive as JSON strings ("450.00").
// The aggregator is not consistent about this across carriers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(unquoted), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", unquoted, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
