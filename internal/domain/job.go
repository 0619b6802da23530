package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Job is a tracked posting; URL is its only stable identifier.
type Job struct {
	URL                   string            `json:"url"`
	ProcessingStatus      ProcessingStatus  `json:"status"`
	ApplicationStatus     ApplicationStatus `json:"application_status"`
	IsArchived            bool              `json:"is_archived"`
	Company               string            `json:"company,omitempty"`
	JobTitle              string            `json:"job_title,omitempty"`
	Location              string            `json:"location,omitempty"`
	FullDescription       string            `json:"full_description,omitempty"`
	Source                string            `json:"source,omitempty"`
	SuitabilityScore      *int              `json:"suitability_score,omitempty"`
	AcceptanceProbability *int              `json:"acceptance_probability,omitempty"`
	JobSummary            string            `json:"job_summary,omitempty"`
	Recommendation        string            `json:"recommendation,omitempty"`
	Showstoppers          []string          `json:"showstoppers,omitempty"`
	GapAnalysis           []string          `json:"gap_analysis,omitempty"`
	ErrorLog              string            `json:"error_log,omitempty"`
	CreatedAt             Timestamp         `json:"created_at"`
	AnalyzedAt            Timestamp         `json:"analyzed_at"`
	UpdatedAt             Timestamp         `json:"updated_at"`

	// Labels the service sent that this client does not know; set on decode.
	UnknownStatus            string `json:"-"`
	UnknownApplicationStatus string `json:"-"`
}

// UnmarshalJSON applies defaults for records written by older service revisions:
// a missing status means NEW and a missing application status falls back to the
// legacy user_action field. Labels from newer revisions that this client does
// not know decode as NEW and pending, with the raw label kept in the Unknown
// fields.
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	aux := struct {
		*plain
		UserAction string `json:"user_action"`
	}{plain: (*plain)(j)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	j.UnknownStatus, j.UnknownApplicationStatus = "", ""
	switch {
	case j.ProcessingStatus == "":
		j.ProcessingStatus = StatusNew
	case !j.ProcessingStatus.Valid():
		j.UnknownStatus = string(j.ProcessingStatus)
		j.ProcessingStatus = StatusNew
	}
	switch {
	case j.ApplicationStatus == "":
		j.ApplicationStatus = applicationFromUserAction(aux.UserAction)
	case !j.ApplicationStatus.Valid():
		j.UnknownApplicationStatus = string(j.ApplicationStatus)
		j.ApplicationStatus = ApplicationPending
	}
	return nil
}

func applicationFromUserAction(action string) ApplicationStatus {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "applied":
		return ApplicationApplied
	case "ignored":
		return ApplicationNotRelevant
	default:
		return ApplicationPending
	}
}

// Clone returns a deep copy so snapshots never share slices with the store.
func (j Job) Clone() Job {
	out := j
	if j.SuitabilityScore != nil {
		v := *j.SuitabilityScore
		out.SuitabilityScore = &v
	}
	if j.AcceptanceProbability != nil {
		v := *j.AcceptanceProbability
		out.AcceptanceProbability = &v
	}
	if j.Showstoppers != nil {
		out.Showstoppers = append([]string(nil), j.Showstoppers...)
	}
	if j.GapAnalysis != nil {
		out.GapAnalysis = append([]string(nil), j.GapAnalysis...)
	}
	return out
}

// DuplicateCandidate is a transient record of a submission the service already knows.
// It is display-only and never joins the job set.
type DuplicateCandidate struct {
	URL                string `json:"url"`
	PreviouslySeenDate string `json:"date"`
	Company            string `json:"company"`
}

// SubmitResult is the normalised outcome of a URL submission. SkippedCount is
// what the service reported; Skipped may list fewer when it sent only a count.
type SubmitResult struct {
	Added        int
	Skipped      []DuplicateCandidate
	SkippedCount int
}

// TextSubmission carries manually supplied posting content.
type TextSubmission struct {
	Text        string `json:"text"`
	Title       string `json:"title"`
	OriginalURL string `json:"url,omitempty"`
}

// ManualUpdate overwrites scraped content with human supplied text.
type ManualUpdate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// ProfileKind names one of the profile text blobs kept by the service.
type ProfileKind string

const (
	ProfileResume  ProfileKind = "resume"
	ProfileContext ProfileKind = "context"
)

// ParseProfileKind validates a profile name.
func ParseProfileKind(raw string) (ProfileKind, error) {
	switch kind := ProfileKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case ProfileResume, ProfileContext:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown profile %q", raw)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp decodes the ISO-8601 variants the service emits, with or without a zone.
// Zone-less values are read as UTC. Null and empty strings decode to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
