// Package export renders session results into downloadable formats.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/landingscout/landingscout/internal/scout"
)

// csvHeader is the column layout consumed by downstream spreadsheets.
var csvHeader = []string{
	"URL",
	"Type",
	"Status",
	"Product Count",
	"Scan Time",
	"Error Message",
	"Screenshot URL",
}

// Exporter writes session page results as CSV.
type Exporter struct {
	sessions scout.SessionStore
}

// New constructs an Exporter.
func New(sessions scout.SessionStore) *Exporter {
	return &Exporter{sessions: sessions}
}

// WriteSessionCSV streams the session's page results to w. A session with
// no recorded results is reported as not found, matching the lookup
// behavior for unknown sessions.
func (e *Exporter) WriteSessionCSV(ctx context.Context, sessionID string, w io.Writer) error {
	if _, err := e.sessions.GetSession(ctx, sessionID); err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	results, err := e.sessions.ListPageResults(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list page results: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("session %s has no results: %w", sessionID, scout.ErrNotFound)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.URL,
			r.PageType,
			string(r.Status),
			strconv.Itoa(r.ProductCount),
			r.ScanTime.UTC().Format(time.RFC3339),
			r.ErrorMessage,
			r.ScreenshotPath,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
