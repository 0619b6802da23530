package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProcessingStatus enumerates pipeline milestones reported by the job service.
type ProcessingStatus string

const (
	StatusNew              ProcessingStatus = "NEW"
	StatusWaitingForScrape ProcessingStatus = "WAITING_FOR_SCRAPE"
	StatusScraping         ProcessingStatus = "SCRAPING"
	StatusWaitingForAI     ProcessingStatus = "WAITING_FOR_AI"
	StatusAnalyzing        ProcessingStatus = "ANALYZING"
	StatusCompleted        ProcessingStatus = "COMPLETED"
	StatusFailedScrape     ProcessingStatus = "FAILED_SCRAPE"
	StatusFailedAnalysis   ProcessingStatus = "FAILED_ANALYSIS"
	StatusNoData           ProcessingStatus = "NO_DATA"
)

// ProcessingStatuses lists every processing status in pipeline order, failures last.
func ProcessingStatuses() []ProcessingStatus {
	return []ProcessingStatus{
		StatusNew,
		StatusWaitingForScrape,
		StatusScraping,
		StatusWaitingForAI,
		StatusAnalyzing,
		StatusCompleted,
		StatusFailedScrape,
		StatusFailedAnalysis,
		StatusNoData,
	}
}

// Labels emitted by older revisions of the service.
var legacyProcessingStatuses = map[string]ProcessingStatus{
	"pending":   StatusWaitingForScrape,
	"scraping":  StatusScraping,
	"scraped":   StatusWaitingForAI,
	"analyzing": StatusAnalyzing,
	"completed": StatusCompleted,
	"failed":    StatusFailedScrape,
}

// ParseProcessingStatus canonicalises a status label. Casing is ignored and the
// legacy lowercase labels are mapped onto the current enum.
func ParseProcessingStatus(raw string) (ProcessingStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if legacy, ok := legacyProcessingStatuses[trimmed]; ok {
		return legacy, nil
	}

	candidate := ProcessingStatus(strings.ToUpper(strings.ReplaceAll(trimmed, "-", "_")))
	for _, status := range ProcessingStatuses() {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown processing status %q", raw)
}

// UnmarshalJSON canonicalises statuses on decode; null and "" leave s empty.
// Unrecognised labels are kept verbatim and fail Valid, so one record from a
// newer service never breaks decoding of the whole set.
func (s *ProcessingStatus) UnmarshalJSON(data []byte) error {
	raw, err := decodeLabel(data)
	if err != nil || raw == "" {
		return err
	}
	parsed, err := ParseProcessingStatus(raw)
	if err != nil {
		parsed = ProcessingStatus(raw)
	}
	*s = parsed
	return nil
}

// IsFailure reports the absorbing failure states that only retry or rescan leave.
func (s ProcessingStatus) IsFailure() bool {
	switch s {
	case StatusFailedScrape, StatusFailedAnalysis, StatusNoData:
		return true
	case StatusNew, StatusWaitingForScrape, StatusScraping, StatusWaitingForAI, StatusAnalyzing, StatusCompleted:
		return false
	}
	return false
}

// InFlight reports whether the pipeline is still working on the record.
func (s ProcessingStatus) InFlight() bool {
	switch s {
	case StatusNew, StatusWaitingForScrape, StatusScraping, StatusWaitingForAI, StatusAnalyzing:
		return true
	case StatusCompleted, StatusFailedScrape, StatusFailedAnalysis, StatusNoData:
		return false
	}
	return false
}

// NeedsManualContent marks failures that a human can unblock by pasting the posting.
func (s ProcessingStatus) NeedsManualContent() bool {
	return s == StatusFailedScrape || s == StatusNoData
}

// Valid reports whether s is one of the declared processing statuses.
func (s ProcessingStatus) Valid() bool {
	return s.IsFailure() || s.InFlight() || s == StatusCompleted
}

// ApplicationStatus is the human decision state of a job.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationPhoneScreen ApplicationStatus = "phone_screen"
	ApplicationInterview   ApplicationStatus = "interview"
	ApplicationNotRelevant ApplicationStatus = "not_relevant"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationGhosted     ApplicationStatus = "ghosted"
)

// ApplicationStatuses lists every application status.
func ApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationPending,
		ApplicationApplied,
		ApplicationPhoneScreen,
		ApplicationInterview,
		ApplicationNotRelevant,
		ApplicationRejected,
		ApplicationGhosted,
	}
}

// ParseApplicationStatus canonicalises a status label; empty input means pending.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ApplicationPending, nil
	}
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	for _, status := range ApplicationStatuses() {
		if ApplicationStatus(normalized) == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", raw)
}

// UnmarshalJSON canonicalises statuses on decode; null and "" leave s empty.
// Unrecognised labels are kept verbatim and fail Valid.
func (s *ApplicationStatus) UnmarshalJSON(data []byte) error {
	raw, err := decodeLabel(data)
	if err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseApplicationStatus(raw)
	if err != nil {
		parsed = ApplicationStatus(raw)
	}
	*s = parsed
	return nil
}

// ImpliesArchive reports whether moving a job to s archives it by convention.
func (s ApplicationStatus) ImpliesArchive() bool {
	switch s {
	case ApplicationApplied, ApplicationNotRelevant, ApplicationRejected:
		return true
	case ApplicationPending, ApplicationPhoneScreen, ApplicationInterview, ApplicationGhosted:
		return false
	}
	return false
}

// InProcess reports statuses that belong to an application the human has sent.
func (s ApplicationStatus) InProcess() bool {
	switch s {
	case ApplicationApplied, ApplicationPhoneScreen, ApplicationInterview, ApplicationRejected, ApplicationGhosted:
		return true
	case ApplicationPending, ApplicationNotRelevant:
		return false
	}
	return false
}

// Valid reports whether s is one of the declared application statuses.
func (s ApplicationStatus) Valid() bool {
	return s.InProcess() || s == ApplicationPending || s == ApplicationNotRelevant
}

func decodeLabel(data []byte) (string, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
