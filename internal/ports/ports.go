package ports

import (
	"context"
	"time"

	"JobTriage/internal/domain"
)

// JobService is the external scrape-and-analyze service holding the authoritative job set.
// Duplicate submissions come back as *domain.DuplicateError, transport and server
// failures as *domain.RemoteError.
type JobService interface {
	FetchJobs(ctx context.Context) ([]domain.Job, error)
	SubmitURLs(ctx context.Context, urls []string) (domain.SubmitResult, error)
	SubmitText(ctx context.Context, req domain.TextSubmission) error
	DeleteJob(ctx context.Context, url string) error
	RetryJob(ctx context.Context, url string) error
	UpdateApplicationStatus(ctx context.Context, url string, status domain.ApplicationStatus, archived *bool) error
	ManualUpdate(ctx context.Context, req domain.ManualUpdate) error
	ClearHistory(ctx context.Context) error
}

// ProfileService reads and writes the profile texts the analyzer scores against.
type ProfileService interface {
	GetProfile(ctx context.Context, kind domain.ProfileKind) (string, error)
	SaveProfile(ctx context.Context, kind domain.ProfileKind, content string) error
}

// Ticker drives a periodic job until stopped.
type Ticker interface {
	Start(ctx context.Context, interval time.Duration, job func(time.Time)) error
	Stop(ctx context.Context) error
}
