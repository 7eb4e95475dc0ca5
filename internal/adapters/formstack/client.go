// Package formstack is the REST client for the form backend holding the
// review submissions. It implements the engine's SubmissionSource and
// FormMetadata ports.
package formstack

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"placemap/internal/adapters/observability"
	"placemap/internal/domain"
)

var (
	ErrNotFound     = errors.New("formstack: not found")
	ErrUnauthorized = errors.New("formstack: unauthorized")
)

// Logical field names the map UI depends on.
var wantedFields = []string{"name", "place", "address", "rate", "review", "googleplaceid", "timestamp"}

type Client struct {
	base   string
	hc     *http.Client
	oauth  string
	formID string
	rl     *rate.Limiter

	mu       sync.Mutex
	fieldIDs map[string]string // memoized logical name -> field id
}

func New(base, oauth, formID string, rps int) (*Client, error) {
	if oauth == "" {
		return nil, fmt.Errorf("oauth token is required")
	}
	if formID == "" {
		return nil, fmt.Errorf("form id is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		oauth:  oauth,
		formID: formID,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Field is one form field definition.
type Field struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// FormHTML returns the hosted form's embeddable markup.
func (c *Client) FormHTML(ctx context.Context) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/form/%s", c.base, c.formID), &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// Fields returns the form's field definitions.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	var out []Field
	if err := c.get(ctx, fmt.Sprintf("%s/form/%s/field", c.base, c.formID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FormFieldIDs maps the logical field names to backend ids. The answer
// is fetched once and memoized for the client's lifetime.
func (c *Client) FormFieldIDs(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	if c.fieldIDs != nil {
		ids := c.fieldIDs
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	fields, err := c.Fields(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(wantedFields))
	for _, f := range fields {
		for _, want := range wantedFields {
			if f.Name == want {
				ids[want] = f.ID
			}
		}
	}

	c.mu.Lock()
	c.fieldIDs = ids
	c.mu.Unlock()
	return ids, nil
}

// rawSubmission is the backend's submission row shape with data=true.
type rawSubmission struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Data      map[string]struct {
		Field string `json:"field"`
		Value string `json:"value"`
	} `json:"data"`
}

// SubmissionsForCity fetches the submissions whose address mentions the
// city (every submission when city is empty) and maps them to domain
// rows, newest first as the backend sorts them.
func (c *Client) SubmissionsForCity(ctx context.Context, city string) ([]domain.Submission, error) {
	ids, err := c.FormFieldIDs(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("data", "true")
	q.Set("sort", "DESC")
	if city != "" {
		q.Set("search_field_0", ids["address"])
		q.Set("search_value_0", city)
	}

	var out struct {
		Submissions []rawSubmission `json:"submissions"`
	}
	u := fmt.Sprintf("%s/form/%s/submission?%s", c.base, c.formID, q.Encode())
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}

	rows := make([]domain.Submission, 0, len(out.Submissions))
	for _, raw := range out.Submissions {
		rows = append(rows, mapSubmission(raw, ids))
	}
	return rows, nil
}

// get performs a GET with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	const attempts = 4
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.oauth)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("formstack", req.URL.Path, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("formstack: remote %d", resp.StatusCode)
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("formstack: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 when absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles per attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter from crypto/rand so concurrent clients spread out.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
