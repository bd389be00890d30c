// Package remote talks to the provider backend over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/provider-sync/internal/model"
)

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the backend may accept the same call later.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPClient implements provider.Remote against the /v1/provider routes.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		maxRetries: 2,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}
}

// WithRetries overrides how often a transport error, 429 or 5xx is retried.
func (c *HTTPClient) WithRetries(n int, baseDelay time.Duration) *HTTPClient {
	c.maxRetries = n
	c.baseDelay = baseDelay
	return c
}

func (c *HTTPClient) FetchSlots(ctx context.Context) ([]model.Slot, error) {
	var out struct {
		Slots []model.Slot `json:"slots"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/provider/slots", nil, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

func (c *HTTPClient) FetchReservations(ctx context.Context) ([]model.Reservation, error) {
	var out struct {
		Reservations []model.Reservation `json:"reservations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/provider/reservations", nil, &out); err != nil {
		return nil, err
	}
	return out.Reservations, nil
}

func (c *HTTPClient) UpsertSlot(ctx context.Context, slot model.Slot) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/provider/slots/"+url.PathEscape(slot.ID), slot, nil)
}

func (c *HTTPClient) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	body := map[string]model.ReservationStatus{"status": status}
	return c.doJSON(ctx, http.MethodPatch, reservationPath(id, "status"), body, nil)
}

func (c *HTTPClient) SaveReservationMemo(ctx context.Context, id string, memo *string) error {
	body := map[string]*string{"memo": memo}
	return c.doJSON(ctx, http.MethodPut, reservationPath(id, "memo"), body, nil)
}

func (c *HTTPClient) SaveReservationContact(ctx context.Context, id string, contact model.Contact) error {
	return c.doJSON(ctx, http.MethodPut, reservationPath(id, "contact"), contact, nil)
}

func (c *HTTPClient) SaveFeedback(ctx context.Context, id string, feedback model.Feedback) error {
	body := map[string]model.Feedback{"feedback": feedback}
	return c.doJSON(ctx, http.MethodPut, reservationPath(id, "feedback"), body, nil)
}

func reservationPath(id, leaf string) string {
	return "/v1/provider/reservations/" + url.PathEscape(id) + "/" + leaf
}

func (c *HTTPClient) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	// one id for every attempt of the same call
	correlation := uuid.NewString()
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
		if err != nil {
			return err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("X-Correlation-Id", correlation)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			return json.Unmarshal(payload, out)
		}

		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		if httpErr.Retryable() && attempt < c.maxRetries {
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}
		var errPayload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(payload, &errPayload)
		httpErr.Message = errPayload.Error
		return httpErr
	}
}

func (c *HTTPClient) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}
	return min(delay, maxDelay)
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := http.ParseTime(header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
