// Package classifier partitions a job set into the work queues a human triages.
package classifier

import (
	"sort"
	"time"

	"JobTriage/internal/domain"
)

// Queue names one of the four disjoint work queues.
type Queue int

const (
	QueuePending Queue = iota
	QueueActive
	QueueApplied
	QueueArchive
)

// Queues lists every queue in display order.
func Queues() []Queue {
	return []Queue{QueuePending, QueueActive, QueueApplied, QueueArchive}
}

func (q Queue) String() string {
	switch q {
	case QueuePending:
		return "pending"
	case QueueActive:
		return "active"
	case QueueApplied:
		return "applied"
	case QueueArchive:
		return "archive"
	}
	return "unknown"
}

// Classify assigns a job to exactly one queue.
//
// Precedence: anything the pipeline has not completed is pending; a completed job
// with a sent application is applied whatever its archive flag; a completed job
// marked not relevant, or archived while still undecided, is history; the rest is
// awaiting review.
func Classify(job domain.Job) Queue {
	if job.ProcessingStatus != domain.StatusCompleted {
		return QueuePending
	}
	if job.ApplicationStatus.InProcess() {
		return QueueApplied
	}
	if job.ApplicationStatus == domain.ApplicationNotRelevant || job.IsArchived {
		return QueueArchive
	}
	return QueueActive
}

func IsPending(job domain.Job) bool  { return Classify(job) == QueuePending }
func IsActive(job domain.Job) bool   { return Classify(job) == QueueActive }
func IsApplied(job domain.Job) bool  { return Classify(job) == QueueApplied }
func IsArchived(job domain.Job) bool { return Classify(job) == QueueArchive }

// Partition holds the queues produced from one job set.
type Partition struct {
	Pending []domain.Job
	Active  []domain.Job
	Applied []domain.Job
	Archive []domain.Job
}

// Split classifies every job and orders each queue for display.
func Split(jobs []domain.Job) Partition {
	var p Partition
	for _, job := range jobs {
		switch Classify(job) {
		case QueuePending:
			p.Pending = append(p.Pending, job)
		case QueueActive:
			p.Active = append(p.Active, job)
		case QueueApplied:
			p.Applied = append(p.Applied, job)
		case QueueArchive:
			p.Archive = append(p.Archive, job)
		}
	}

	sortBy(p.Pending, func(j domain.Job) time.Time { return j.CreatedAt.Time }, false)
	sortBy(p.Active, analyzedOrCreated, true)
	sortBy(p.Applied, updatedOrCreated, true)
	sortBy(p.Archive, analyzedOrCreated, true)
	return p
}

// Get returns the jobs of q.
func (p Partition) Get(q Queue) []domain.Job {
	switch q {
	case QueuePending:
		return p.Pending
	case QueueActive:
		return p.Active
	case QueueApplied:
		return p.Applied
	case QueueArchive:
		return p.Archive
	}
	return nil
}

// Len is the number of jobs across all queues.
func (p Partition) Len() int {
	return len(p.Pending) + len(p.Active) + len(p.Applied) + len(p.Archive)
}

// InProgress is the part of the pending queue the pipeline is still working on.
func (p Partition) InProgress() []domain.Job {
	var out []domain.Job
	for _, job := range p.Pending {
		if !job.ProcessingStatus.IsFailure() {
			out = append(out, job)
		}
	}
	return out
}

// AttentionRequired is the part of the pending queue stuck in a failure state.
func (p Partition) AttentionRequired() []domain.Job {
	var out []domain.Job
	for _, job := range p.Pending {
		if job.ProcessingStatus.IsFailure() {
			out = append(out, job)
		}
	}
	return out
}

// AppliedStats counts the applied queue per application status.
func (p Partition) AppliedStats() map[domain.ApplicationStatus]int {
	stats := make(map[domain.ApplicationStatus]int)
	for _, job := range p.Applied {
		stats[job.ApplicationStatus]++
	}
	return stats
}

func analyzedOrCreated(j domain.Job) time.Time {
	if !j.AnalyzedAt.IsZero() {
		return j.AnalyzedAt.Time
	}
	return j.CreatedAt.Time
}

func updatedOrCreated(j domain.Job) time.Time {
	if !j.UpdatedAt.IsZero() {
		return j.UpdatedAt.Time
	}
	return j.CreatedAt.Time
}

func sortBy(jobs []domain.Job, key func(domain.Job) time.Time, newestFirst bool) {
	sort.SliceStable(jobs, func(i, k int) bool {
		a, b := key(jobs[i]), key(jobs[k])
		if newestFirst {
			return a.After(b)
		}
		return a.Before(b)
	})
}
