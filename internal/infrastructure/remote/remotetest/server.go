// Package remotetest provides an in-memory job service for tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"JobTriage/internal/domain"
)

// Server mimics the job-processing service: URL uniqueness, duplicate reporting,
// retry/manual-update resets and history clearing. Tests drive pipeline progress
// with Advance.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	jobs     map[string]domain.Job
	order    []string
	profiles map[domain.ProfileKind]string
	failures map[string]int
	holds    map[string]chan struct{}
	calls    map[string]int
	now      func() time.Time
}

// NewServer starts a fake service; the API lives under BaseURL().
func NewServer() *Server {
	s := &Server{
		jobs:     map[string]domain.Job{},
		profiles: map[domain.ProfileKind]string{},
		failures: map[string]int{},
		holds:    map[string]chan struct{}{},
		calls:    map[string]int{},
		now:      func() time.Time { return time.Now().UTC() },
	}

	r := chi.NewRouter()
	r.Use(s.intercept)
	r.Route("/api", func(r chi.Router) {
		r.Get("/results", s.handleResults)
		r.Post("/jobs/url", s.handleSubmitURLs)
		r.Post("/jobs/text", s.handleSubmitText)
		r.Delete("/jobs", s.handleDelete)
		r.Post("/jobs/retry", s.handleRetry)
		r.Post("/jobs/application-status", s.handleApplicationStatus)
		r.Post("/jobs/manual-update", s.handleManualUpdate)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/profile/{kind}", s.handleGetProfile)
		r.Post("/profile/{kind}", s.handleSaveProfile)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to hand to remote.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Put seeds or overwrites a job.
func (s *Server) Put(jobs ...domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range jobs {
		if job.ApplicationStatus == "" {
			job.ApplicationStatus = domain.ApplicationPending
		}
		if job.CreatedAt.IsZero() {
			job.CreatedAt = domain.NewTimestamp(s.now())
		}
		s.store(job)
	}
}

// Advance moves a job to status the way the pipeline workers would.
func (s *Server) Advance(url string, status domain.ProcessingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[url]
	if !ok {
		return
	}
	job.ProcessingStatus = status
	if status == domain.StatusCompleted {
		job.AnalyzedAt = domain.NewTimestamp(s.now())
	}
	s.store(job)
}

// Job returns the stored job for url.
func (s *Server) Job(url string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[url]
	return job, ok
}

// Count returns how many records exist for url (always 0 or 1 by construction).
func (s *Server) Count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.order {
		if u == url {
			n++
		}
	}
	return n
}

// Len is the size of the job set.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// FailNext makes the next n requests to "METHOD /path" answer with status 500.
func (s *Server) FailNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] += n
}

// Hold blocks requests to "METHOD /path" until the returned release is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls reports how many requests reached "METHOD /path".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.calls[route]++
		hold := s.holds[route]
		fail := s.failures[route] > 0
		if fail {
			s.failures[route]--
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if fail {
			http.Error(w, `{"detail":"injected failure"}`, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	jobs := make([]domain.Job, 0, len(s.order))
	for _, url := range s.order {
		jobs = append(jobs, s.jobs[url])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleSubmitURLs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	skipped := []domain.DuplicateCandidate{}
	for _, raw := range req.URLs {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		if existing, ok := s.jobs[url]; ok {
			skipped = append(skipped, domain.DuplicateCandidate{
				URL:                url,
				PreviouslySeenDate: existing.CreatedAt.Format("2006-01-02"),
				Company:            existing.Company,
			})
			continue
		}
		s.store(domain.Job{
			URL:               url,
			ProcessingStatus:  domain.StatusWaitingForScrape,
			ApplicationStatus: domain.ApplicationPending,
			Source:            "extension",
			CreatedAt:         domain.NewTimestamp(s.now()),
		})
		added++
	}

	writeJSON(w, http.StatusOK, map[string]any{"added": added, "skipped_urls": skipped})
}

func (s *Server) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var req domain.TextSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "invalid submission", http.StatusUnprocessableEntity)
		return
	}

	url := "manual-" + strings.ReplaceAll(strings.TrimSpace(req.Title), " ", "-")

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[url]; ok {
		writeJSON(w, http.StatusConflict, map[string]any{"detail": map[string]string{
			"url":  url,
			"date": existing.CreatedAt.Format("2006-01-02"),
		}})
		return
	}

	job := domain.Job{
		URL:               url,
		ProcessingStatus:  domain.StatusWaitingForAI,
		ApplicationStatus: domain.ApplicationPending,
		JobTitle:          req.Title,
		FullDescription:   req.Text,
		Source:            "manual",
		CreatedAt:         domain.NewTimestamp(s.now()),
	}
	s.store(job)
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	s.mu.Lock()
	s.remove(url)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[url]
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	job.ProcessingStatus = domain.StatusWaitingForScrape
	job.ErrorLog = ""
	job.IsArchived = false
	s.store(job)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Job re-queued"})
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL        string                   `json:"url"`
		Status     domain.ApplicationStatus `json:"status"`
		IsArchived *bool                    `json:"is_archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		http.Error(w, "invalid status update", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[req.URL]
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	job.ApplicationStatus = req.Status
	job.IsArchived = req.Status.ImpliesArchive()
	if req.IsArchived != nil {
		job.IsArchived = *req.IsArchived
	}
	job.UpdatedAt = domain.NewTimestamp(s.now())
	s.store(job)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated successfully"})
}

func (s *Server) handleManualUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.ManualUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[req.URL]
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	job.JobTitle = req.Title
	job.Company = req.Company
	job.FullDescription = req.Description
	job.ProcessingStatus = domain.StatusWaitingForAI
	job.ErrorLog = ""
	job.IsArchived = false
	s.store(job)

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	for _, url := range append([]string(nil), s.order...) {
		if s.jobs[url].IsArchived {
			s.remove(url)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseProfileKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.mu.Lock()
	content := s.profiles[kind]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseProfileKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	s.profiles[kind] = body.Content
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// store must be called with mu held.
func (s *Server) store(job domain.Job) {
	if _, ok := s.jobs[job.URL]; !ok {
		s.order = append(s.order, job.URL)
	}
	s.jobs[job.URL] = job
}

// remove must be called with mu held.
func (s *Server) remove(url string) {
	if _, ok := s.jobs[url]; !ok {
		return
	}
	delete(s.jobs, url)
	for i, u := range s.order {
		if u == url {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
