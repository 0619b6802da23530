package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobTriage/internal/domain"
	"JobTriage/internal/infrastructure/remote/remotetest"
)

func newFake(t *testing.T) (*remotetest.Server, *Client) {
	t.Helper()
	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.BaseURL(), nil, 5*time.Second)
}

func TestSubmitURLsPartialDuplicate(t *testing.T) {
	t.Parallel()

	srv, client := newFake(t)
	srv.Put(domain.Job{
		URL:              "a",
		ProcessingStatus: domain.StatusAnalyzing,
		Company:          "Acme",
		CreatedAt:        domain.NewTimestamp(time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)),
	})

	res, err := client.SubmitURLs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []domain.DuplicateCandidate{{URL: "a", PreviouslySeenDate: "2024-01-01", Company: "Acme"}}, res.Skipped)

	jobs, err := client.FetchJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[1].URL)
	assert.Equal(t, domain.StatusWaitingForScrape, jobs[1].ProcessingStatus)
}

func TestSubmitURLsTotalDuplicate(t *testing.T) {
	t.Parallel()

	srv, client := newFake(t)
	srv.Put(domain.Job{URL: "a", ProcessingStatus: domain.StatusCompleted})

	res, err := client.SubmitURLs(context.Background(), []string{"a"})
	require.Error(t, err)

	dup, ok := domain.IsDuplicate(err)
	require.True(t, ok)
	assert.True(t, dup.Total)
	assert.Equal(t, 0, res.Added)
	require.Len(t, dup.Candidates, 1)
	assert.Equal(t, "a", dup.Candidates[0].URL)
	assert.False(t, IsTransient(err))
}

func TestSubmitURLsCountOnlyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"added":0,"skipped":2}`)
	}))
	t.Cleanup(srv.Close)

	res, err := NewClient(srv.URL, nil, time.Second).SubmitURLs(context.Background(), []string{"x", "y"})
	dup, ok := domain.IsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, []string{dup.Candidates[0].URL, dup.Candidates[1].URL})
	assert.Equal(t, 2, res.SkippedCount)
}

func TestSubmitURLsCountOnlyPartial(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"added":1,"skipped":1}`)
	}))
	t.Cleanup(srv.Close)

	res, err := NewClient(srv.URL, nil, time.Second).SubmitURLs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Empty(t, res.Skipped, "a count alone cannot say which link was skipped")
}

func TestConflictShapesAreNormalised(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"top level": `{"url":"manual-x","date":"2024-02-02","company":"Initech"}`,
		"detail":    `{"detail":{"url":"manual-x","date":"2024-02-02","company":"Initech"}}`,
	}

	for name, body := range bodies {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_, _ = io.WriteString(w, body)
			}))
			t.Cleanup(srv.Close)

			err := NewClient(srv.URL, nil, time.Second).SubmitText(context.Background(), domain.TextSubmission{Text: "t", Title: "x"})
			dup, ok := domain.IsDuplicate(err)
			require.True(t, ok)
			assert.True(t, dup.Total)
			assert.Equal(t, []domain.DuplicateCandidate{{URL: "manual-x", PreviouslySeenDate: "2024-02-02", Company: "Initech"}}, dup.Candidates)
		})
	}
}

func TestFakeServiceConflictOnRepeatedText(t *testing.T) {
	t.Parallel()

	_, client := newFake(t)
	req := domain.TextSubmission{Text: "Senior Go engineer", Title: "Go role"}
	require.NoError(t, client.SubmitText(context.Background(), req))

	err := client.SubmitText(context.Background(), req)
	dup, ok := domain.IsDuplicate(err)
	require.True(t, ok)
	require.Len(t, dup.Candidates, 1)
	assert.Equal(t, "manual-Go-role", dup.Candidates[0].URL)
}

func TestServerErrorIsRemoteError(t *testing.T) {
	t.Parallel()

	srv, client := newFake(t)
	srv.FailNext("GET /results", 1)

	_, err := client.FetchJobs(context.Background())
	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
	assert.Equal(t, "fetch jobs", remoteErr.Op)
	assert.Contains(t, remoteErr.Body, "injected failure")
	assert.True(t, IsTransient(err))

	_, err = client.FetchJobs(context.Background())
	assert.NoError(t, err)
}

func TestTransportErrorIsRemoteError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	err := NewClient(srv.URL, nil, time.Second).DeleteJob(context.Background(), "a")
	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Zero(t, remoteErr.StatusCode)
	assert.Error(t, errors.Unwrap(err))
}

func TestRequestShape(t *testing.T) {
	t.Parallel()

	type seen struct {
		method, path, query, requestID, agent string
		body                                  map[string]any
	}
	got := make(chan seen, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{
			method:    r.Method,
			path:      r.URL.Path,
			query:     r.URL.Query().Get("url"),
			requestID: r.Header.Get("X-Request-ID"),
			agent:     r.Header.Get("User-Agent"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&s.body)
		}
		got <- s
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL+"/", nil, time.Second)
	ctx := context.Background()

	require.NoError(t, client.RetryJob(ctx, "https://jobs.example/1?ref=x&y=z"))
	s := <-got
	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "/jobs/retry", s.path)
	assert.Equal(t, "https://jobs.example/1?ref=x&y=z", s.query)
	assert.Equal(t, "JobTriage/1.0", s.agent)
	_, err := uuid.Parse(s.requestID)
	assert.NoError(t, err)

	require.NoError(t, client.UpdateApplicationStatus(ctx, "a", domain.ApplicationApplied, nil))
	s = <-got
	assert.Equal(t, "/jobs/application-status", s.path)
	assert.Equal(t, "applied", s.body["status"])
	assert.NotContains(t, s.body, "is_archived")

	keep := false
	require.NoError(t, client.UpdateApplicationStatus(ctx, "a", domain.ApplicationApplied, &keep))
	s = <-got
	assert.Equal(t, false, s.body["is_archived"])

	require.NoError(t, client.DeleteJob(ctx, "a"))
	s = <-got
	assert.Equal(t, http.MethodDelete, s.method)
	assert.Equal(t, "a", s.query)
}

func TestFakeServiceLifecycle(t *testing.T) {
	t.Parallel()

	srv, client := newFake(t)
	ctx := context.Background()
	srv.Put(
		domain.Job{URL: "f", ProcessingStatus: domain.StatusFailedScrape, ErrorLog: "403", IsArchived: true},
		domain.Job{URL: "done", ProcessingStatus: domain.StatusCompleted},
	)

	require.NoError(t, client.RetryJob(ctx, "f"))
	job, _ := srv.Job("f")
	assert.Equal(t, domain.StatusWaitingForScrape, job.ProcessingStatus)
	assert.Empty(t, job.ErrorLog)
	assert.False(t, job.IsArchived)

	require.NoError(t, client.ManualUpdate(ctx, domain.ManualUpdate{URL: "f", Title: "T", Company: "C", Description: "D"}))
	job, _ = srv.Job("f")
	assert.Equal(t, domain.StatusWaitingForAI, job.ProcessingStatus)
	assert.Equal(t, "D", job.FullDescription)

	require.NoError(t, client.UpdateApplicationStatus(ctx, "done", domain.ApplicationNotRelevant, nil))
	job, _ = srv.Job("done")
	assert.True(t, job.IsArchived)

	require.NoError(t, client.ClearHistory(ctx))
	_, ok := srv.Job("done")
	assert.False(t, ok)
	assert.Equal(t, 1, srv.Len())
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()

	_, client := newFake(t)
	ctx := context.Background()

	require.NoError(t, client.SaveProfile(ctx, domain.ProfileResume, "Go, Kubernetes"))
	got, err := client.GetProfile(ctx, domain.ProfileResume)
	require.NoError(t, err)
	assert.Equal(t, "Go, Kubernetes", got)

	got, err = client.GetProfile(ctx, domain.ProfileContext)
	require.NoError(t, err)
	assert.Empty(t, got)
}
