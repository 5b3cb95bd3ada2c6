// Package scout defines core types shared across subsystems.
package scout

import (
	"time"
)

// SessionStatus represents the lifecycle state of a scouting session.
type SessionStatus string

// Session status values persisted in the session store.
// Pending and Running are the only cancellable states; the other four are
// terminal and immutable once set.
const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusRunning   SessionStatus = "RUNNING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusFailed    SessionStatus = "FAILED"
	SessionStatusTimeout   SessionStatus = "TIMEOUT"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusTimeout, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsCancellable reports whether a session in this status may be cancelled.
func (s SessionStatus) IsCancellable() bool {
	return s == SessionStatusPending || s == SessionStatusRunning
}

// PageResultStatus is the per-page outcome, independent of session status.
type PageResultStatus string

// Page result status values.
const (
	PageStatusSuccess PageResultStatus = "SUCCESS"
	PageStatusError   PageResultStatus = "ERROR"
	PageStatusTimeout PageResultStatus = "TIMEOUT"
	PageStatusSkipped PageResultStatus = "SKIPPED"
)

// PageTypeUnknown is recorded when no configured rule matches a page.
const PageTypeUnknown = "UNKNOWN"

// PageTypeRule binds a page-type tag to the selectors used to identify a
// page of that type and to extract its product count. Rules are immutable
// once embedded in a Scout; their order matters, classification tries them
// in order and the first match wins.
type PageTypeRule struct {
	Type                     string `json:"type"`
	Identifier               string `json:"identifier"`
	CountSelector            string `json:"countSelector"`
	FallbackProductSelectors string `json:"fallbackProductSelectors,omitempty"`
}

// Scout is a configured, recurring crawl job definition.
type Scout struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	StartURL        string         `json:"startUrl"`
	Schedule        string         `json:"schedule"`
	PageTypes       []PageTypeRule `json:"pageTypes"`
	Active          bool           `json:"active"`
	MaxPagesToVisit int            `json:"maxPagesToVisit,omitempty"`
	Timeout         time.Duration  `json:"timeout,omitempty"`
	LastRunAt       *time.Time     `json:"lastRunAt,omitempty"`
	NextRunAt       *time.Time     `json:"nextRunAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Session is one execution instance of a Scout.
type Session struct {
	ID                string        `json:"id"`
	ScoutID           string        `json:"scoutId"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           *time.Time    `json:"endTime,omitempty"`
	TotalPagesScanned int           `json:"totalPagesScanned"`
	Status            SessionStatus `json:"status"`
	ErrorMessage      string        `json:"errorMessage,omitempty"`
}

// PageResult is persisted once for every attempted URL in a session. A
// failed page is retried by creating a new result, never by editing the
// old one.
type PageResult struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"sessionId"`
	URL              string           `json:"url"`
	PageType         string           `json:"pageType"`
	ProductCount     int              `json:"productCount"`
	ScanTime         time.Time        `json:"scanTime"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
	Status           PageResultStatus `json:"status"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
	ScreenshotPath   string           `json:"screenshotPath,omitempty"`
	HTMLSnapshotURI  string           `json:"htmlSnapshotUri,omitempty"`
}

// SessionEvent is published when a session reaches a terminal state.
type SessionEvent struct {
	SessionID         string        `json:"session_id"`
	ScoutID           string        `json:"scout_id"`
	Status            SessionStatus `json:"status"`
	TotalPagesScanned int           `json:"total_pages_scanned"`
	FinishedAt        time.Time     `json:"finished_at"`
}
