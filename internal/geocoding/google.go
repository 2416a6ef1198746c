package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// GoogleBaseURL -- Google Geocoding API base URL.
const GoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Statuses reported for lookups that never produced a provider verdict.
const (
	// StatusNoAddress marks rows whose address cell was blank; such rows are
	// short-circuited by the orchestrator without a network call.
	StatusNoAddress = "address value not available"
	// StatusRequestFailed marks lookups that could not reach the provider
	// after retries (connection failure or timeout).
	StatusRequestFailed = "request failed"
	// StatusUnparseable marks lookups whose provider payload could not be
	// decoded.
	StatusUnparseable = "unparseable provider response"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2 // automatic retries on transient failure, after the first attempt
	retryBackoff   = 5 * time.Millisecond
)

// GoogleClient resolves addresses against the Google Geocoding API.
// One invocation issues one outbound call (plus bounded retries) and folds
// every provider-side failure into an unmatched Outcome, so no single
// address can abort the batch it belongs to.
type GoogleClient struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Geocoding API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// googleResponse represents the JSON response from the Geocoding API.
type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// NewGoogleClient creates a new Google geocoding client with a per-call
// timeout and a requests-per-second rate limit.
func NewGoogleClient(apiKey string, rateLimit int, timeout time.Duration, log *slog.Logger) *GoogleClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GoogleClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: GoogleBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewGoogleClientWithClient allows injecting a custom HTTP client.
func NewGoogleClientWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *GoogleClient {
	return &GoogleClient{
		client:  client,
		baseURL: GoogleBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Resolve looks up a single address. In the case of multiple candidates the
// outcome carries details of the FIRST one; the provider-defined ranking is
// trusted. Transient failures (connection errors, 5xx responses) are retried
// up to maxRetries times with a short fixed backoff before degrading to an
// unmatched outcome.
func (gc *GoogleClient) Resolve(ctx context.Context, address string) Outcome {
	if err := gc.limiter.Wait(ctx); err != nil {
		gc.log.ErrorContext(ctx, "Rate limiter interrupted", "address", address, "error", err)
		return Outcome{Status: StatusRequestFailed, Failure: FailureTransport}
	}

	gc.log.DebugContext(ctx, "Geocoding using Google", "address", address)

	resp, err := gc.doWithRetry(ctx, address)
	if err != nil {
		gc.log.ErrorContext(ctx, "Geocoding request failed", "address", address, "error", err)
		return Outcome{Status: StatusRequestFailed, Failure: FailureTransport}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gc.log.ErrorContext(ctx, "Failed to read response body", "address", address, "error", err)
		return Outcome{Status: StatusRequestFailed, Failure: FailureTransport}
	}

	if resp.StatusCode != http.StatusOK {
		gc.log.ErrorContext(ctx, "Google API error", "status", resp.StatusCode, "body", string(body))
		return Outcome{Status: fmt.Sprintf("HTTP %d", resp.StatusCode), Failure: FailureProvider}
	}

	var payload googleResponse
	if err = json.Unmarshal(body, &payload); err != nil {
		gc.log.ErrorContext(ctx, "Failed to parse Google response", "error", err, "body", string(body))
		return Outcome{Status: StatusUnparseable, Failure: FailureParse}
	}

	if len(payload.Results) == 0 {
		return Outcome{CandidateCount: 0, Status: payload.Status}
	}

	first := payload.Results[0]
	return Outcome{
		Matched:          true,
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		CandidateCount:   len(payload.Results),
		Status:           payload.Status,
	}
}

// doWithRetry issues the geocode request, retrying on connection failures and
// 5xx responses. It returns the last response with any other status so the
// caller can surface the observed status per row.
func (gc *GoogleClient) doWithRetry(ctx context.Context, address string) (*http.Response, error) {
	reqURL, err := url.Parse(gc.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("address", address)
	query.Set("key", gc.apiKey)
	reqURL.RawQuery = query.Encode()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(retryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-timer.C:
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Accept", "application/json")

		resp, doErr := gc.client.Do(req)
		if doErr != nil {
			lastErr = doErr
			gc.log.DebugContext(ctx, "Geocoding attempt failed", "attempt", attempt+1, "error", doErr)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < maxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("google API returned status %d", resp.StatusCode)
			gc.log.DebugContext(ctx, "Geocoding attempt failed", "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("failed to execute geocoding request: %w", lastErr)
}
