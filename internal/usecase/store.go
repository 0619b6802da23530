package usecase

import (
	"sync"
	"time"

	"JobTriage/internal/classifier"
	"JobTriage/internal/domain"
)

// Patch is an optimistic local mutation. Apply receives a private copy of the
// job set and returns the new one.
type Patch interface {
	Apply(jobs []domain.Job) []domain.Job
}

// Snapshot is an immutable view of the job set at one store version.
type Snapshot struct {
	jobs    []domain.Job
	Version uint64
	Loaded  bool
}

// Jobs returns a deep copy of the job set in service order.
func (s Snapshot) Jobs() []domain.Job {
	out := make([]domain.Job, len(s.jobs))
	for i, job := range s.jobs {
		out[i] = job.Clone()
	}
	return out
}

// Len is the number of jobs in the snapshot.
func (s Snapshot) Len() int {
	return len(s.jobs)
}

// Job looks a job up by url.
func (s Snapshot) Job(url string) (domain.Job, bool) {
	for _, job := range s.jobs {
		if job.URL == url {
			return job.Clone(), true
		}
	}
	return domain.Job{}, false
}

// Partition classifies the snapshot into work queues.
func (s Snapshot) Partition() classifier.Partition {
	return classifier.Split(s.Jobs())
}

// Store owns the local job set. Writes come from optimistic patches and from
// authoritative fetches; a single monotonic sequence orders both, so a fetch
// issued before a patch can never overwrite it.
type Store struct {
	mu        sync.Mutex
	jobs      []domain.Job
	loaded    bool
	version   uint64
	seq       uint64
	lastFetch uint64
	lastPatch uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

// NewStore builds an empty, not yet loaded store.
func NewStore() *Store {
	return &Store{listeners: map[int]func(Snapshot){}}
}

// Snapshot returns the current view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Apply runs a patch against the job set and notifies subscribers.
func (s *Store) Apply(p Patch) Snapshot {
	s.mu.Lock()
	s.seq++
	s.lastPatch = s.seq
	s.jobs = p.Apply(cloneJobs(s.jobs))
	s.version++
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
	return snap
}

// BeginFetch issues the sequence ticket a fetch must present to Replace.
func (s *Store) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Replace installs an authoritative job set fetched under ticket. It reports
// false, leaving the store untouched, when a newer fetch was already applied or
// a patch was applied after the ticket was issued.
func (s *Store) Replace(ticket uint64, jobs []domain.Job) bool {
	s.mu.Lock()
	if ticket <= s.lastFetch || ticket < s.lastPatch {
		s.mu.Unlock()
		return false
	}
	s.lastFetch = ticket
	s.jobs = cloneJobs(jobs)
	s.loaded = true
	s.version++
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
	return true
}

// Subscribe registers fn to receive every new snapshot. Callbacks run on the
// writer's goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	// s.jobs is never mutated in place, so sharing it is safe.
	return Snapshot{jobs: s.jobs, Version: s.version, Loaded: s.loaded}
}

func (s *Store) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func cloneJobs(jobs []domain.Job) []domain.Job {
	out := make([]domain.Job, len(jobs))
	for i, job := range jobs {
		out[i] = job.Clone()
	}
	return out
}

func indexOf(jobs []domain.Job, url string) int {
	for i, job := range jobs {
		if job.URL == url {
			return i
		}
	}
	return -1
}

// AddPlaceholders appends a NEW job for every url not yet in the set.
type AddPlaceholders struct {
	URLs []string
	At   time.Time
}

func (p AddPlaceholders) Apply(jobs []domain.Job) []domain.Job {
	for _, url := range p.URLs {
		if indexOf(jobs, url) >= 0 {
			continue
		}
		jobs = append(jobs, placeholder(url, p.At))
	}
	return jobs
}

// SetApplicationStatus records a human decision and its archive flag.
type SetApplicationStatus struct {
	URL      string
	Status   domain.ApplicationStatus
	Archived bool
	At       time.Time
}

func (p SetApplicationStatus) Apply(jobs []domain.Job) []domain.Job {
	if i := indexOf(jobs, p.URL); i >= 0 {
		jobs[i].ApplicationStatus = p.Status
		jobs[i].IsArchived = p.Archived
		jobs[i].UpdatedAt = domain.NewTimestamp(p.At)
	}
	return jobs
}

// ResetForRetry puts a job back at the start of the scrape stage.
type ResetForRetry struct {
	URL string
}

func (p ResetForRetry) Apply(jobs []domain.Job) []domain.Job {
	if i := indexOf(jobs, p.URL); i >= 0 {
		jobs[i].ProcessingStatus = domain.StatusWaitingForScrape
		jobs[i].ErrorLog = ""
		jobs[i].IsArchived = false
	}
	return jobs
}

// ReplaceWithPlaceholder swaps a job for a fresh NEW record, or adds one.
type ReplaceWithPlaceholder struct {
	URL string
	At  time.Time
}

func (p ReplaceWithPlaceholder) Apply(jobs []domain.Job) []domain.Job {
	if i := indexOf(jobs, p.URL); i >= 0 {
		jobs[i] = placeholder(p.URL, p.At)
		return jobs
	}
	return append(jobs, placeholder(p.URL, p.At))
}

// SetManualContent overwrites scraped content and queues the job for analysis.
type SetManualContent struct {
	URL         string
	Title       string
	Company     string
	Description string
}

func (p SetManualContent) Apply(jobs []domain.Job) []domain.Job {
	if i := indexOf(jobs, p.URL); i >= 0 {
		jobs[i].JobTitle = p.Title
		jobs[i].Company = p.Company
		jobs[i].FullDescription = p.Description
		jobs[i].ProcessingStatus = domain.StatusWaitingForAI
		jobs[i].ErrorLog = ""
		jobs[i].IsArchived = false
	}
	return jobs
}

// RemoveJob drops one job.
type RemoveJob struct {
	URL string
}

func (p RemoveJob) Apply(jobs []domain.Job) []domain.Job {
	if i := indexOf(jobs, p.URL); i >= 0 {
		return append(jobs[:i], jobs[i+1:]...)
	}
	return jobs
}

// RemoveArchived drops every job carrying the archive flag.
type RemoveArchived struct{}

func (RemoveArchived) Apply(jobs []domain.Job) []domain.Job {
	kept := jobs[:0]
	for _, job := range jobs {
		if !job.IsArchived {
			kept = append(kept, job)
		}
	}
	return kept
}

func placeholder(url string, at time.Time) domain.Job {
	return domain.Job{
		URL:               url,
		ProcessingStatus:  domain.StatusNew,
		ApplicationStatus: domain.ApplicationPending,
		JobTitle:          "Pending analysis",
		CreatedAt:         domain.NewTimestamp(at),
	}
}
