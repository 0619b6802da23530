package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"JobTriage/internal/classifier"
	"JobTriage/internal/domain"
	"JobTriage/internal/infrastructure/remote"
	"JobTriage/internal/infrastructure/remote/remotetest"
	"JobTriage/internal/mocks"
	"JobTriage/internal/ports"
)

func newDispatcher(svc ports.JobService) *Dispatcher {
	return NewDispatcher(DispatcherDeps{
		Service: svc,
		Status:  NewStatusFlag(time.Hour, time.Hour),
		Now:     func() time.Time { return t0 },
	})
}

func withFake(t *testing.T, seed ...domain.Job) (*remotetest.Server, *Dispatcher) {
	t.Helper()
	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)
	srv.Put(seed...)

	d := newDispatcher(remote.NewClient(srv.BaseURL(), nil, 5*time.Second))
	require.NoError(t, d.Refresh(context.Background()))
	return srv, d
}

func queueOf(t *testing.T, d *Dispatcher, url string) classifier.Queue {
	t.Helper()
	job, ok := d.Store().Snapshot().Job(url)
	require.True(t, ok, "job %s not in store", url)
	return classifier.Classify(job)
}

func TestSubmitURLsPartialDuplicateScenario(t *testing.T) {
	t.Parallel()

	a := job("a", domain.StatusAnalyzing, domain.ApplicationPending)
	a.Company = "Acme"
	srv, d := withFake(t, a)
	assert.True(t, ShouldPoll(d.Store().Snapshot().Jobs(), false))

	res, err := d.SubmitURLs(context.Background(), []string{"a", " b ", "", "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []domain.DuplicateCandidate{{URL: "a", PreviouslySeenDate: "2024-01-01", Company: "Acme"}}, d.Duplicates().List())
	assert.Equal(t, classifier.QueuePending, queueOf(t, d, "b"))
	assert.Equal(t, 2, srv.Len())

	state, _ := d.Status().State()
	assert.Equal(t, SubmitSuccess, state)
}

func TestRefreshLoadsSetWithUnknownLabels(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"url":"a","status":"ANALYZING"},
			{"url":"b","status":"QUEUED"},
			{"url":"c","status":"COMPLETED","application_status":"offer"}
		]`)
	}))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	d := NewDispatcher(DispatcherDeps{
		Service: remote.NewClient(srv.URL, nil, 5*time.Second),
		Logger:  slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})

	require.NoError(t, d.Refresh(context.Background()))
	require.NoError(t, d.Refresh(context.Background()))

	snap := d.Store().Snapshot()
	require.True(t, snap.Loaded)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, classifier.QueuePending, queueOf(t, d, "b"))
	assert.Equal(t, classifier.QueueActive, queueOf(t, d, "c"))

	assert.Equal(t, 1, strings.Count(logs.String(), "label=QUEUED"), "warned once across fetches")
	assert.Equal(t, 1, strings.Count(logs.String(), "label=offer"))
}

func TestSubmitURLsAllDuplicates(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("a", domain.StatusCompleted, domain.ApplicationPending))

	res, err := d.SubmitURLs(context.Background(), []string{"a"})
	dup, ok := domain.IsDuplicate(err)
	require.True(t, ok)
	assert.True(t, dup.Total)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, []string{"a"}, candidateURLs(d.Duplicates().List()))
	assert.Equal(t, 1, srv.Len())
	assert.Equal(t, 1, d.Store().Snapshot().Len())

	state, _ := d.Status().State()
	assert.Equal(t, SubmitIdle, state, "duplicates are not failures")
}

func TestSubmitURLsCountOnlyPartialUsesLocalJobs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	a := job("a", domain.StatusCompleted, domain.ApplicationPending)
	a.Company = "Acme"
	require.True(t, d.Store().Replace(d.Store().BeginFetch(), []domain.Job{a}))

	gomock.InOrder(
		svc.EXPECT().SubmitURLs(gomock.Any(), []string{"a", "b"}).Return(domain.SubmitResult{Added: 1, SkippedCount: 1}, nil),
		svc.EXPECT().FetchJobs(gomock.Any()).Return([]domain.Job{a, job("b", domain.StatusWaitingForScrape, domain.ApplicationPending)}, nil),
	)

	res, err := d.SubmitURLs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	want := []domain.DuplicateCandidate{{URL: "a", PreviouslySeenDate: t0.Format(time.DateOnly), Company: "Acme"}}
	assert.Equal(t, want, res.Skipped)
	assert.Equal(t, want, d.Duplicates().List())
}

func TestSubmitURLsTotalDuplicateFilledFromLocalJobs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	a := job("a", domain.StatusCompleted, domain.ApplicationPending)
	a.Company = "Acme"
	require.True(t, d.Store().Replace(d.Store().BeginFetch(), []domain.Job{a}))

	counted := []domain.DuplicateCandidate{{URL: "a"}}
	gomock.InOrder(
		svc.EXPECT().SubmitURLs(gomock.Any(), []string{"a"}).Return(
			domain.SubmitResult{Skipped: counted, SkippedCount: 1},
			&domain.DuplicateError{Candidates: counted, Total: true},
		),
		svc.EXPECT().FetchJobs(gomock.Any()).Return([]domain.Job{a}, nil),
	)

	_, err := d.SubmitURLs(context.Background(), []string{"a"})
	dup, ok := domain.IsDuplicate(err)
	require.True(t, ok)

	want := []domain.DuplicateCandidate{{URL: "a", PreviouslySeenDate: t0.Format(time.DateOnly), Company: "Acme"}}
	assert.Equal(t, want, dup.Candidates)
	assert.Equal(t, want, d.Duplicates().List())
}

func TestSuccessfulSubmissionReplacesCandidates(t *testing.T) {
	t.Parallel()

	_, d := withFake(t, job("a", domain.StatusCompleted, domain.ApplicationPending))
	_, err := d.SubmitURLs(context.Background(), []string{"a"})
	require.Error(t, err)
	require.Len(t, d.Duplicates().List(), 1)

	_, err = d.SubmitURLs(context.Background(), []string{"fresh"})
	require.NoError(t, err)
	assert.Empty(t, d.Duplicates().List())
}

func TestUpdateApplicationStatusMovesJobToApplied(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("x", domain.StatusCompleted, domain.ApplicationPending))
	assert.Equal(t, classifier.QueueActive, queueOf(t, d, "x"))

	require.NoError(t, d.UpdateApplicationStatus(context.Background(), "x", domain.ApplicationApplied, nil))

	assert.Equal(t, classifier.QueueApplied, queueOf(t, d, "x"))
	p := d.Store().Snapshot().Partition()
	assert.Empty(t, p.Active)
	remoteJob, _ := srv.Job("x")
	assert.True(t, remoteJob.IsArchived)
}

func TestUpdateApplicationStatusOverride(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("x", domain.StatusCompleted, domain.ApplicationPending))
	keep := false

	require.NoError(t, d.UpdateApplicationStatus(context.Background(), "x", domain.ApplicationRejected, &keep))

	remoteJob, _ := srv.Job("x")
	assert.False(t, remoteJob.IsArchived)
	assert.Equal(t, domain.ApplicationRejected, remoteJob.ApplicationStatus)
}

func TestUpdateApplicationStatusRequiresCompletedJob(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("s", domain.StatusScraping, domain.ApplicationPending))

	err := d.UpdateApplicationStatus(context.Background(), "s", domain.ApplicationApplied, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, srv.Calls("POST /jobs/application-status"))

	require.NoError(t, d.UpdateApplicationStatus(context.Background(), "s", domain.ApplicationPending, nil))
}

func TestRescanLeavesExactlyOneRecord(t *testing.T) {
	t.Parallel()

	failed := job("x", domain.StatusFailedAnalysis, domain.ApplicationPending)
	failed.ErrorLog = "model timeout"
	srv, d := withFake(t, failed)

	require.NoError(t, d.Rescan(context.Background(), "x"))

	assert.Equal(t, 1, srv.Count("x"))
	assert.Equal(t, 1, d.Store().Snapshot().Len())
	got, _ := d.Store().Snapshot().Job("x")
	assert.Equal(t, domain.StatusWaitingForScrape, got.ProcessingStatus)
	assert.Empty(t, got.ErrorLog)
}

func TestRescanRefusesDecidedJob(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("x", domain.StatusCompleted, domain.ApplicationInterview))

	err := d.Rescan(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, srv.Calls("DELETE /jobs"))
}

func TestRescanFromDuplicateList(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("a", domain.StatusCompleted, domain.ApplicationPending))
	_, err := d.SubmitURLs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, d.Duplicates().List(), 1)

	require.NoError(t, d.Duplicates().Rescan(context.Background(), "a"))

	assert.Empty(t, d.Duplicates().List())
	assert.Equal(t, 1, srv.Count("a"))
	got, _ := srv.Job("a")
	assert.Equal(t, domain.StatusWaitingForScrape, got.ProcessingStatus)
}

func TestDirectRescanDropsCandidate(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t,
		job("a", domain.StatusCompleted, domain.ApplicationPending),
		job("c", domain.StatusCompleted, domain.ApplicationPending),
	)
	_, err := d.SubmitURLs(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, candidateURLs(d.Duplicates().List()))

	srv.FailNext("DELETE /jobs", 1)
	require.Error(t, d.Rescan(context.Background(), "a"))
	assert.Equal(t, []string{"a", "c"}, candidateURLs(d.Duplicates().List()), "failed rescan keeps the candidate")

	require.NoError(t, d.Rescan(context.Background(), "a"))
	assert.Equal(t, []string{"c"}, candidateURLs(d.Duplicates().List()))
}

func TestDismissLeavesJobsAlone(t *testing.T) {
	t.Parallel()

	_, d := withFake(t, job("a", domain.StatusCompleted, domain.ApplicationPending))
	_, err := d.SubmitURLs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	before := d.Store().Snapshot().Jobs()

	assert.True(t, d.Duplicates().Dismiss("a"))
	assert.Empty(t, d.Duplicates().List())
	assert.Equal(t, before, d.Store().Snapshot().Jobs())
}

func TestRetryAndManualUpdate(t *testing.T) {
	t.Parallel()

	failed := job("f", domain.StatusFailedScrape, domain.ApplicationPending)
	failed.ErrorLog = "blocked"
	noData := job("n", domain.StatusNoData, domain.ApplicationPending)
	srv, d := withFake(t, failed, noData)
	ctx := context.Background()

	require.NoError(t, d.Retry(ctx, "f"))
	got, _ := d.Store().Snapshot().Job("f")
	assert.Equal(t, domain.StatusWaitingForScrape, got.ProcessingStatus)
	assert.Empty(t, got.ErrorLog)

	require.NoError(t, d.ManualUpdate(ctx, domain.ManualUpdate{URL: "n", Title: "Go dev", Company: "Initech", Description: "Write Go."}))
	got, _ = d.Store().Snapshot().Job("n")
	assert.Equal(t, domain.StatusWaitingForAI, got.ProcessingStatus)
	assert.Equal(t, "Initech", got.Company)
	remoteJob, _ := srv.Job("n")
	assert.Equal(t, "Write Go.", remoteJob.FullDescription)
}

func TestDeleteAndClearHistory(t *testing.T) {
	t.Parallel()

	old := job("old", domain.StatusCompleted, domain.ApplicationNotRelevant)
	old.IsArchived = true
	srv, d := withFake(t, old, job("keep", domain.StatusCompleted, domain.ApplicationPending), job("gone", domain.StatusNew, domain.ApplicationPending))
	ctx := context.Background()

	require.NoError(t, d.DeleteJob(ctx, "gone"))
	_, ok := d.Store().Snapshot().Job("gone")
	assert.False(t, ok)

	require.NoError(t, d.ClearHistory(ctx))
	assert.Equal(t, 1, srv.Len())
	assert.Equal(t, []string{"keep"}, jobURLs(d.Store().Snapshot().Jobs()))
}

func TestSubmitFreeTextReplacesOriginal(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t, job("f", domain.StatusFailedScrape, domain.ApplicationPending))

	require.NoError(t, d.SubmitFreeText(context.Background(), "Senior Go engineer, remote", "", "f"))

	_, ok := srv.Job("f")
	assert.False(t, ok)
	created, ok := srv.Job("manual-Manual-job")
	require.True(t, ok)
	assert.Equal(t, "Manual job", created.JobTitle)
	assert.Equal(t, []string{"manual-Manual-job"}, jobURLs(d.Store().Snapshot().Jobs()))
}

func TestSubmitFreeTextFailingDeleteIsReported(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	original := job("f", domain.StatusFailedScrape, domain.ApplicationPending)
	manual := job("manual-Role", domain.StatusWaitingForAI, domain.ApplicationPending)

	svc.EXPECT().SubmitText(gomock.Any(), domain.TextSubmission{Text: "text", Title: "Role", OriginalURL: "f"}).Return(nil)
	svc.EXPECT().DeleteJob(gomock.Any(), "f").Return(&domain.RemoteError{Op: "delete job", StatusCode: 500})
	svc.EXPECT().FetchJobs(gomock.Any()).Return([]domain.Job{original, manual}, nil)

	err := d.SubmitFreeText(context.Background(), "text", "Role", "f")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete replaced job f")

	_, ok := d.Store().Snapshot().Job("f")
	assert.True(t, ok, "failed record stays visible")
	state, msg := d.Status().State()
	assert.Equal(t, SubmitError, state)
	assert.NotEmpty(t, msg)
}

func TestFailureStillResyncs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	stuck := job("f", domain.StatusFailedScrape, domain.ApplicationPending)
	require.True(t, d.Store().Replace(d.Store().BeginFetch(), []domain.Job{stuck}))

	gomock.InOrder(
		svc.EXPECT().RetryJob(gomock.Any(), "f").Return(&domain.RemoteError{Op: "retry job", StatusCode: 503}),
		svc.EXPECT().FetchJobs(gomock.Any()).Return([]domain.Job{stuck}, nil),
	)

	err := d.Retry(context.Background(), "f")
	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)

	got, _ := d.Store().Snapshot().Job("f")
	assert.Equal(t, domain.StatusFailedScrape, got.ProcessingStatus, "optimistic reset replaced by the service's view")
	state, _ := d.Status().State()
	assert.Equal(t, SubmitError, state)
}

func TestValidationNeverReachesNetwork(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	d := newDispatcher(mocks.NewMockJobService(ctrl))
	ctx := context.Background()

	_, err := d.SubmitURLs(ctx, []string{" ", ""})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, d.SubmitFreeText(ctx, "  ", "t", ""), domain.ErrValidation)
	assert.ErrorIs(t, d.UpdateApplicationStatus(ctx, "x", "hired", nil), domain.ErrValidation)
	assert.ErrorIs(t, d.UpdateApplicationStatus(ctx, "", domain.ApplicationApplied, nil), domain.ErrValidation)
	assert.ErrorIs(t, d.Retry(ctx, ""), domain.ErrValidation)
	assert.ErrorIs(t, d.Rescan(ctx, " "), domain.ErrValidation)
	assert.ErrorIs(t, d.ManualUpdate(ctx, domain.ManualUpdate{URL: "x"}), domain.ErrValidation)
	assert.ErrorIs(t, d.DeleteJob(ctx, ""), domain.ErrValidation)

	assert.Equal(t, uint64(0), d.Store().Snapshot().Version)
	state, _ := d.Status().State()
	assert.Equal(t, SubmitIdle, state)
}

func TestSameKindCallInFlightIsRejected(t *testing.T) {
	t.Parallel()

	srv, d := withFake(t,
		job("f", domain.StatusFailedScrape, domain.ApplicationPending),
		job("g", domain.StatusFailedScrape, domain.ApplicationPending),
	)
	release := srv.Hold("POST /jobs/retry")
	t.Cleanup(release)

	done := make(chan error, 1)
	go func() { done <- d.Retry(context.Background(), "f") }()
	require.Eventually(t, func() bool { return srv.Calls("POST /jobs/retry") == 1 }, time.Second, time.Millisecond)

	err := d.Retry(context.Background(), "g")
	assert.ErrorIs(t, err, domain.ErrOperationInFlight)
	assert.True(t, IsInFlight(err))

	require.NoError(t, d.DeleteJob(context.Background(), "g"), "other kinds may overlap")

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, srv.Calls("POST /jobs/retry"))
}

func TestFetchIssuedBeforePatchNeverOverwritesIt(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	pending := job("x", domain.StatusCompleted, domain.ApplicationPending)
	applied := pending
	applied.ApplicationStatus = domain.ApplicationApplied
	applied.IsArchived = true
	require.True(t, d.Store().Replace(d.Store().BeginFetch(), []domain.Job{pending}))

	started := make(chan struct{})
	unblock := make(chan struct{})
	var fetches atomic.Int32
	svc.EXPECT().FetchJobs(gomock.Any()).DoAndReturn(func(context.Context) ([]domain.Job, error) {
		if fetches.Add(1) == 1 {
			close(started)
			<-unblock
			return []domain.Job{pending}, nil
		}
		return []domain.Job{applied}, nil
	}).Times(2)
	svc.EXPECT().UpdateApplicationStatus(gomock.Any(), "x", domain.ApplicationApplied, nil).Return(nil)

	slow := make(chan error, 1)
	go func() { slow <- d.Refresh(context.Background()) }()
	<-started

	require.NoError(t, d.UpdateApplicationStatus(context.Background(), "x", domain.ApplicationApplied, nil))
	close(unblock)
	require.NoError(t, <-slow)

	got, _ := d.Store().Snapshot().Job("x")
	assert.Equal(t, domain.ApplicationApplied, got.ApplicationStatus)
	assert.Equal(t, classifier.QueueApplied, classifier.Classify(got))
}

func TestRefreshSurfacesRemoteErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockJobService(ctrl)
	d := newDispatcher(svc)

	svc.EXPECT().FetchJobs(gomock.Any()).Return(nil, &domain.RemoteError{Op: "fetch jobs", Err: errors.New("connection refused")})

	err := d.Refresh(context.Background())
	var remoteErr *domain.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
	assert.False(t, d.Store().Snapshot().Loaded)
}

func TestNormalizeURLs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, NormalizeURLs([]string{" a", "", "b ", "a", "\t"}))
	assert.Empty(t, NormalizeURLs(nil))
}

func candidateURLs(cs []domain.DuplicateCandidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.URL)
	}
	return out
}

func jobURLs(jobs []domain.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.URL)
	}
	return out
}
