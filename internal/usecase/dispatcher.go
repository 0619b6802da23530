package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"JobTriage/internal/domain"
	"JobTriage/internal/ports"
)

const defaultManualTitle = "Manual job"

type opKind string

const (
	opSubmitURLs   opKind = "submit_urls"
	opSubmitText   opKind = "submit_text"
	opStatus       opKind = "update_application_status"
	opRetry        opKind = "retry"
	opRescan       opKind = "rescan"
	opManualUpdate opKind = "manual_update"
	opDelete       opKind = "delete"
	opClearHistory opKind = "clear_history"
	opRefresh      opKind = "refresh"
)

func opKinds() []opKind {
	return []opKind{
		opSubmitURLs, opSubmitText, opStatus, opRetry, opRescan,
		opManualUpdate, opDelete, opClearHistory, opRefresh,
	}
}

// submission kinds own the duplicate list.
func (k opKind) submission() bool {
	return k == opSubmitURLs || k == opSubmitText
}

// DispatcherDeps wires the driven adapters and local state into the dispatcher.
type DispatcherDeps struct {
	Service ports.JobService
	Store   *Store
	Status  *StatusFlag
	Logger  *slog.Logger
	Now     func() time.Time
}

// Dispatcher runs every user action the same way: validate, patch locally,
// call the service, then re-fetch the authoritative job set whatever happened.
// Nothing is rolled back; the re-fetch corrects the optimistic state.
type Dispatcher struct {
	service    ports.JobService
	store      *Store
	status     *StatusFlag
	duplicates *DuplicateResolver
	logger     *slog.Logger
	now        func() time.Time
	guards     map[opKind]*semaphore.Weighted
	// unknown labels already reported, keyed by url and label
	reported sync.Map
}

// NewDispatcher constructs the dispatcher; nil Store, Status, Logger and Now get defaults.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		service: deps.Service,
		store:   deps.Store,
		status:  deps.Status,
		logger:  deps.Logger,
		now:     deps.Now,
		guards:  make(map[opKind]*semaphore.Weighted),
	}
	if d.store == nil {
		d.store = NewStore()
	}
	if d.status == nil {
		d.status = NewStatusFlag(0, 0)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.now == nil {
		d.now = time.Now
	}
	for _, kind := range opKinds() {
		d.guards[kind] = semaphore.NewWeighted(1)
	}
	d.duplicates = NewDuplicateResolver(d)
	return d
}

func (d *Dispatcher) Store() *Store                  { return d.store }
func (d *Dispatcher) Status() *StatusFlag            { return d.status }
func (d *Dispatcher) Duplicates() *DuplicateResolver { return d.duplicates }

// Refresh fetches the authoritative job set and installs it unless a newer
// write got there first.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	guard := d.guards[opRefresh]
	if !guard.TryAcquire(1) {
		return domain.ErrOperationInFlight
	}
	defer guard.Release(1)
	return d.reconcile(ctx)
}

// SubmitURLs submits links for scraping. Blank and repeated links are dropped.
// Links the service already tracks become duplicate candidates; when every link
// was already tracked the returned error is a total *domain.DuplicateError.
func (d *Dispatcher) SubmitURLs(ctx context.Context, urls []string) (domain.SubmitResult, error) {
	cleaned := NormalizeURLs(urls)
	if len(cleaned) == 0 {
		return domain.SubmitResult{}, domain.Validationf("urls", "at least one link is required")
	}

	before := d.store.Snapshot()
	var result domain.SubmitResult
	err := d.run(ctx, opSubmitURLs, AddPlaceholders{URLs: cleaned, At: d.now()}, func(ctx context.Context) error {
		res, err := d.service.SubmitURLs(ctx, cleaned)
		if dup, ok := domain.IsDuplicate(err); ok {
			dup.Candidates = describeSkipped(before, cleaned, dup.Candidates, max(res.SkippedCount, len(dup.Candidates)))
			res.Skipped = dup.Candidates
		}
		if err != nil {
			result = res
			return err
		}

		res.Skipped = describeSkipped(before, cleaned, res.Skipped, res.SkippedCount)
		if len(res.Skipped) < res.SkippedCount {
			d.logger.Warn("skipped links not found locally", "reported", res.SkippedCount, "found", len(res.Skipped))
		}
		result = res
		d.duplicates.Replace(res.Skipped)
		return nil
	})
	return result, err
}

// describeSkipped completes the candidates of a submission from the job set as
// it was before the submission's placeholders went in. Candidates the service
// only counted are taken, in submission order, from links that set already held.
func describeSkipped(before Snapshot, urls []string, reported []domain.DuplicateCandidate, count int) []domain.DuplicateCandidate {
	out := make([]domain.DuplicateCandidate, 0, max(count, len(reported)))
	listed := make(map[string]struct{}, len(reported))
	for _, c := range reported {
		if job, ok := before.Job(c.URL); ok {
			c = fillCandidate(c, job)
		}
		listed[c.URL] = struct{}{}
		out = append(out, c)
	}

	for _, url := range urls {
		if len(out) >= count {
			break
		}
		if _, ok := listed[url]; ok {
			continue
		}
		if job, ok := before.Job(url); ok {
			out = append(out, fillCandidate(domain.DuplicateCandidate{URL: url}, job))
		}
	}
	return out
}

func fillCandidate(c domain.DuplicateCandidate, job domain.Job) domain.DuplicateCandidate {
	if c.Company == "" {
		c.Company = job.Company
	}
	if c.PreviouslySeenDate == "" && !job.CreatedAt.IsZero() {
		c.PreviouslySeenDate = job.CreatedAt.Format(time.DateOnly)
	}
	return c
}

// SubmitFreeText sends posting text straight to analysis. With originalURL the
// record it replaces is deleted afterwards; both steps must succeed.
func (d *Dispatcher) SubmitFreeText(ctx context.Context, text, title, originalURL string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Validationf("text", "posting text is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultManualTitle
	}
	originalURL = strings.TrimSpace(originalURL)

	// The service assigns the new record's key, so there is nothing to patch.
	return d.run(ctx, opSubmitText, nil, func(ctx context.Context) error {
		err := d.service.SubmitText(ctx, domain.TextSubmission{Text: text, Title: title, OriginalURL: originalURL})
		if err != nil {
			return err
		}
		d.duplicates.Clear()

		if originalURL == "" {
			return nil
		}
		if err := d.service.DeleteJob(ctx, originalURL); err != nil {
			return fmt.Errorf("delete replaced job %s: %w", originalURL, err)
		}
		return nil
	})
}

// UpdateApplicationStatus records a decision about a job. applied, not_relevant
// and rejected archive the job unless archiveOverride says otherwise; only an
// explicit override is sent to the service.
func (d *Dispatcher) UpdateApplicationStatus(ctx context.Context, url string, status domain.ApplicationStatus, archiveOverride *bool) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Validationf("url", "job link is required")
	}
	if !status.Valid() {
		return domain.Validationf("status", "unknown application status %q", status)
	}
	if job, ok := d.store.Snapshot().Job(url); ok &&
		job.ProcessingStatus != domain.StatusCompleted && status != domain.ApplicationPending {
		return domain.Validationf("status", "job %s is still %s; only completed jobs can be marked %s",
			url, job.ProcessingStatus, status)
	}

	archived := status.ImpliesArchive()
	if archiveOverride != nil {
		archived = *archiveOverride
	}

	patch := SetApplicationStatus{URL: url, Status: status, Archived: archived, At: d.now()}
	return d.run(ctx, opStatus, patch, func(ctx context.Context) error {
		return d.service.UpdateApplicationStatus(ctx, url, status, archiveOverride)
	})
}

// Retry re-queues a failed job without deleting it.
func (d *Dispatcher) Retry(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Validationf("url", "job link is required")
	}
	return d.run(ctx, opRetry, ResetForRetry{URL: url}, func(ctx context.Context) error {
		return d.service.RetryJob(ctx, url)
	})
}

// Rescan deletes a job and submits its link again, leaving exactly one record.
// A listed duplicate candidate for the link is dropped once the rescan worked.
// Jobs that already carry an application decision are refused so their
// history is not lost.
func (d *Dispatcher) Rescan(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Validationf("url", "job link is required")
	}
	if job, ok := d.store.Snapshot().Job(url); ok && job.ApplicationStatus != domain.ApplicationPending {
		return domain.Validationf("url", "job %s is marked %s; clear the decision before rescanning",
			url, job.ApplicationStatus)
	}

	err := d.run(ctx, opRescan, ReplaceWithPlaceholder{URL: url, At: d.now()}, func(ctx context.Context) error {
		if err := d.service.DeleteJob(ctx, url); err != nil {
			return err
		}
		_, err := d.service.SubmitURLs(ctx, []string{url})
		return err
	})
	if err != nil {
		return err
	}
	d.duplicates.Dismiss(url)
	return nil
}

// ManualUpdate replaces a job's content with user-supplied text and sends it
// back to analysis.
func (d *Dispatcher) ManualUpdate(ctx context.Context, req domain.ManualUpdate) error {
	req.URL = strings.TrimSpace(req.URL)
	req.Title = strings.TrimSpace(req.Title)
	req.Company = strings.TrimSpace(req.Company)
	if req.URL == "" {
		return domain.Validationf("url", "job link is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return domain.Validationf("description", "job description is required")
	}

	patch := SetManualContent{URL: req.URL, Title: req.Title, Company: req.Company, Description: req.Description}
	return d.run(ctx, opManualUpdate, patch, func(ctx context.Context) error {
		return d.service.ManualUpdate(ctx, req)
	})
}

// DeleteJob removes a job permanently.
func (d *Dispatcher) DeleteJob(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Validationf("url", "job link is required")
	}
	return d.run(ctx, opDelete, RemoveJob{URL: url}, func(ctx context.Context) error {
		return d.service.DeleteJob(ctx, url)
	})
}

// ClearHistory deletes every archived job.
func (d *Dispatcher) ClearHistory(ctx context.Context) error {
	return d.run(ctx, opClearHistory, RemoveArchived{}, func(ctx context.Context) error {
		return d.service.ClearHistory(ctx)
	})
}

func (d *Dispatcher) run(ctx context.Context, kind opKind, patch Patch, call func(context.Context) error) error {
	guard := d.guards[kind]
	if !guard.TryAcquire(1) {
		return fmt.Errorf("%s: %w", kind, domain.ErrOperationInFlight)
	}
	defer guard.Release(1)

	log := d.logger.With("op", string(kind))
	log.Debug("dispatching")

	d.status.Sending()
	if patch != nil {
		d.store.Apply(patch)
	}

	callErr := call(ctx)
	refreshErr := d.reconcile(ctx)

	if dup, ok := domain.IsDuplicate(callErr); ok && kind.submission() {
		d.duplicates.Replace(dup.Candidates)
		d.status.Reset()
		log.Debug("duplicates reported", "count", len(dup.Candidates), "total", dup.Total)
		return callErr
	}

	err := callErr
	if err == nil && refreshErr != nil {
		err = refreshErr
	}
	if err != nil {
		d.status.Fail(err)
		log.Warn("action failed", "error", err)
		return fmt.Errorf("%s: %w", kind, err)
	}

	d.status.Succeed()
	log.Debug("action done")
	return nil
}

func (d *Dispatcher) reconcile(ctx context.Context) error {
	ticket := d.store.BeginFetch()
	jobs, err := d.service.FetchJobs(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	d.reportUnknownLabels(jobs)
	if !d.store.Replace(ticket, jobs) {
		d.logger.Debug("stale fetch dropped", "ticket", ticket)
	}
	return nil
}

// reportUnknownLabels warns once per job and label about statuses this client
// does not know; such jobs are shown as new and pending until it learns them.
func (d *Dispatcher) reportUnknownLabels(jobs []domain.Job) {
	for _, job := range jobs {
		for field, label := range map[string]string{
			"status":             job.UnknownStatus,
			"application_status": job.UnknownApplicationStatus,
		} {
			if label == "" {
				continue
			}
			if _, seen := d.reported.LoadOrStore(job.URL+"\x00"+field+"\x00"+label, struct{}{}); seen {
				continue
			}
			d.logger.Warn("unknown status label", "url", job.URL, "field", field, "label", label)
		}
	}
}

// NormalizeURLs trims links, drops blanks and keeps the first of repeats.
func NormalizeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}

// IsInFlight reports whether err is the same-kind rejection.
func IsInFlight(err error) bool {
	return errors.Is(err, domain.ErrOperationInFlight)
}
