package sheets

import (
	"context"
	"strings"
	"time"

	"wfm_order_visibility/internal/processing"
	"wfm_order_visibility/internal/retry"

	"github.com/rs/zerolog/log"
)

type rowAppender interface {
	AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}) error
}

// Recorder appends one audit row per changed order to a spreadsheet.
type Recorder struct {
	client        rowAppender
	spreadsheetID string
	sheetRange    string
	retry         retry.Config
	now           func() time.Time
}

func NewRecorder(client *Client, spreadsheetID, sheetRange string, retryConfig retry.Config) *Recorder {
	return &Recorder{
		client:        client,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		retry:         retryConfig,
		now:           time.Now,
	}
}

// RecordUpdatePass writes the changes of a pass. Passes without changes
// write nothing.
func (r *Recorder) RecordUpdatePass(ctx context.Context, result *processing.Result) error {
	if result == nil || len(result.Changes) == 0 {
		log.Debug().Msg("No changed orders to record")
		return nil
	}

	rows := BuildRows(result, r.now())
	err := retry.Do(ctx, r.retry, "sheet append", func(ctx context.Context) error {
		return r.client.AppendRows(ctx, r.spreadsheetID, r.sheetRange, rows)
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("rows", len(rows)).
		Str("sheet_range", r.sheetRange).
		Msg("Recorded order changes")
	return nil
}

// BuildRows renders changes as timestamp, order id, item, old and new
// visibility and the matched syndicates.
func BuildRows(result *processing.Result, at time.Time) [][]interface{} {
	stamp := at.Format("15:04:05 - 02/01/06")
	rows := make([][]interface{}, 0, len(result.Changes))
	for _, change := range result.Changes {
		names := make([]string, len(change.Syndicates))
		for i, id := range change.Syndicates {
			names[i] = id.String()
		}
		rows = append(rows, []interface{}{
			stamp,
			change.OrderID,
			change.ItemURLName,
			visibilityWord(change.WasVisible),
			visibilityWord(change.NowVisible),
			strings.Join(names, ", "),
		})
	}
	return rows
}

func visibilityWord(visible bool) string {
	if visible {
		return "visible"
	}
	return "invisible"
}
