package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"JobTriage/internal/domain"
	"JobTriage/internal/ports"
)

const (
	userAgent       = "JobTriage/1.0"
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 1024
)

// Client talks to the job-processing service over JSON/HTTP. It keeps no state
// besides its transport.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.JobService = (*Client)(nil)
var _ ports.ProfileService = (*Client)(nil)

// NewClient builds a client for baseURL (e.g. http://localhost:8000/api).
// A nil httpClient gets a default one with the given timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

type submitURLsResponse struct {
	Added       int                         `json:"added"`
	SkippedURLs []domain.DuplicateCandidate `json:"skipped_urls"`
	Skipped     int                         `json:"skipped"`
}

type conflictBody struct {
	URL     string          `json:"url"`
	Date    string          `json:"date"`
	Company string          `json:"company"`
	Detail  json.RawMessage `json:"detail"`
}

type profileBody struct {
	Content string `json:"content"`
}

// FetchJobs returns the authoritative job set.
func (c *Client) FetchJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := c.do(ctx, "fetch jobs", http.MethodGet, "/results", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// SubmitURLs batch-submits links. Links the service already tracks come back in
// SubmitResult.Skipped; services that only count them leave SkippedCount above
// len(Skipped). When nothing was added the call also returns a total
// *domain.DuplicateError.
func (c *Client) SubmitURLs(ctx context.Context, urls []string) (domain.SubmitResult, error) {
	var resp submitURLsResponse
	if err := c.do(ctx, "submit urls", http.MethodPost, "/jobs/url", nil, map[string]any{"urls": urls}, &resp); err != nil {
		return domain.SubmitResult{}, err
	}

	result := domain.SubmitResult{
		Added:        resp.Added,
		Skipped:      resp.SkippedURLs,
		SkippedCount: max(resp.Skipped, len(resp.SkippedURLs)),
	}
	if len(result.Skipped) == 0 && result.SkippedCount == len(urls) {
		// Every link was skipped, so the count alone names them.
		result.Skipped = countedCandidates(urls)
	}

	if result.Added == 0 && result.SkippedCount > 0 {
		return result, &domain.DuplicateError{Candidates: result.Skipped, Total: true}
	}
	return result, nil
}

// SubmitText sends manually supplied posting content straight to analysis.
func (c *Client) SubmitText(ctx context.Context, req domain.TextSubmission) error {
	return c.do(ctx, "submit text", http.MethodPost, "/jobs/text", nil, req, nil)
}

// DeleteJob removes a job permanently.
func (c *Client) DeleteJob(ctx context.Context, jobURL string) error {
	return c.do(ctx, "delete job", http.MethodDelete, "/jobs", url.Values{"url": {jobURL}}, nil, nil)
}

// RetryJob re-queues a job without deleting it.
func (c *Client) RetryJob(ctx context.Context, jobURL string) error {
	return c.do(ctx, "retry job", http.MethodPost, "/jobs/retry", url.Values{"url": {jobURL}}, nil, nil)
}

// UpdateApplicationStatus records the human decision; archived is only sent when set.
func (c *Client) UpdateApplicationStatus(ctx context.Context, jobURL string, status domain.ApplicationStatus, archived *bool) error {
	payload := map[string]any{"url": jobURL, "status": status}
	if archived != nil {
		payload["is_archived"] = *archived
	}
	return c.do(ctx, "update application status", http.MethodPost, "/jobs/application-status", nil, payload, nil)
}

// ManualUpdate overwrites scraped content and re-queues analysis.
func (c *Client) ManualUpdate(ctx context.Context, req domain.ManualUpdate) error {
	return c.do(ctx, "manual update", http.MethodPost, "/jobs/manual-update", nil, req, nil)
}

// ClearHistory deletes every archived job.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, "clear history", http.MethodDelete, "/history", nil, nil, nil)
}

// GetProfile reads one profile text.
func (c *Client) GetProfile(ctx context.Context, kind domain.ProfileKind) (string, error) {
	var body profileBody
	if err := c.do(ctx, "get profile", http.MethodGet, "/profile/"+string(kind), nil, nil, &body); err != nil {
		return "", err
	}
	return body.Content, nil
}

// SaveProfile replaces one profile text.
func (c *Client) SaveProfile(ctx context.Context, kind domain.ProfileKind, content string) error {
	return c.do(ctx, "save profile", http.MethodPost, "/profile/"+string(kind), nil, profileBody{Content: content}, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal payload: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return conflictError(raw)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// conflictError normalises a single-submission 409 into the same candidate
// shape the batch endpoint reports inline. The payload may sit at the top
// level or under "detail".
func conflictError(raw []byte) error {
	var body conflictBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return &domain.DuplicateError{Total: true}
	}

	if len(body.Detail) > 0 && body.URL == "" {
		var detail conflictBody
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			body = detail
		}
	}

	if body.URL == "" {
		return &domain.DuplicateError{Total: true}
	}
	return &domain.DuplicateError{
		Candidates: []domain.DuplicateCandidate{{
			URL:                body.URL,
			PreviouslySeenDate: body.Date,
			Company:            body.Company,
		}},
		Total: true,
	}
}

func countedCandidates(urls []string) []domain.DuplicateCandidate {
	out := make([]domain.DuplicateCandidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, domain.DuplicateCandidate{URL: u})
	}
	return out
}

// IsTransient reports whether err is a transport or server failure rather than a
// validation or duplicate outcome.
func IsTransient(err error) bool {
	var remoteErr *domain.RemoteError
	return errors.As(err, &remoteErr)
}
