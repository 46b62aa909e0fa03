// Package export writes aggregated ledger reports to a Google spreadsheet.
// The spreadsheet is a read-only mirror for people who want their numbers in
// a familiar place; the database stays the source of truth.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"moneta/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	monthlySheet  string
	categorySheet string
}

// NewSheetsExporter builds an exporter from a spreadsheet id and service
// account credentials. credentialsJSON may be inline JSON or empty, in which
// case credentialsFile (a path) is read instead.
func NewSheetsExporter(ctx context.Context, spreadsheetID, credentialsJSON, credentialsFile string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var creds []byte
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		creds = []byte(credentialsJSON)
	case strings.TrimSpace(credentialsFile) != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	year := time.Now().Year()
	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		monthlySheet:  fmt.Sprintf("%d Monthly", year),
		categorySheet: fmt.Sprintf("%d Categories", year),
	}, nil
}

// ExportMonthlySeries rewrites the monthly sheet with one row per month:
// year, month, expense total, income total, net.
func (e *SheetsExporter) ExportMonthlySeries(ctx context.Context, series []core.MonthTotals) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(series)+1)
	values = append(values, []any{"Year", "Month", "Expense", "Income", "Net"})
	for _, m := range series {
		net := m.Income.Sub(m.Expense)
		values = append(values, []any{
			m.Year, m.Month,
			float64(m.Expense.Cents) / 100.0,
			float64(m.Income.Cents) / 100.0,
			float64(net.Cents) / 100.0,
		})
	}

	rng := fmt.Sprintf("%s!A1:E%d", e.monthlySheet, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", e.monthlySheet, err)
	}

	slog.InfoContext(ctx, "Exported monthly series",
		"sheet", e.monthlySheet, "rows", len(series))
	return nil
}

// ExportGroupedCategories rewrites the category sheet with one row per
// bucket: type, category name, total.
func (e *SheetsExporter) ExportGroupedCategories(ctx context.Context, groups []core.GroupedCategory) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(groups)+1)
	values = append(values, []any{"Type", "Category", "Total"})
	for _, g := range groups {
		values = append(values, []any{
			string(g.Type), g.CategoryName,
			float64(g.Total.Cents) / 100.0,
		})
	}

	rng := fmt.Sprintf("%s!A1:C%d", e.categorySheet, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", e.categorySheet, err)
	}

	slog.InfoContext(ctx, "Exported grouped categories",
		"sheet", e.categorySheet, "rows", len(groups))
	return nil
}
