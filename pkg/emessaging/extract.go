package emessaging

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/parser"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

// ExtractWorkbook opens the billing workbook and returns one record per
// billing box found on the worksheet. Records come back in scan order:
// box column by box column, top to bottom.
func ExtractWorkbook(path, sheet, ownerNumber string) ([]models.BillingRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	} else {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil {
			return nil, fmt.Errorf("look up sheet %q: %w", sheet, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
		}
	}

	params := parser.DefaultScanParams()
	layout := parser.DefaultBoxLayout()

	anchors, err := parser.FindAnchors(f, sheet, params)
	if err != nil {
		return nil, err
	}

	records := make([]models.BillingRecord, 0, len(anchors))
	for _, anchor := range anchors {
		rec, err := parser.ExtractBox(f, sheet, anchor, layout, ownerNumber)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExtractionResult summarizes one extraction run.
type ExtractionResult struct {
	// PeriodLabel names the billing period and its log file.
	PeriodLabel string
	// Found is the number of boxes extracted from the worksheet.
	Found int
	// Billable is the number of records that passed the filter.
	Billable int
	// Appended is the number of rows newly written to the billing log;
	// zero means the run found no new data.
	Appended int
}

// RunExtraction performs a full extraction run: scan the workbook,
// filter to billable records, append them to the period's billing log
// with duplicate suppression, and make sure the messaging stores exist.
// Re-running against an unchanged workbook appends nothing.
func RunExtraction(cfg Config, readingDate time.Time) (*ExtractionResult, error) {
	records, err := ExtractWorkbook(cfg.SourcePath, cfg.SheetName, cfg.OwnerNumber)
	if err != nil {
		return nil, err
	}

	billable := Billable(records, cfg.ExcludedCustomers)

	label := models.PeriodLabel(readingDate)
	logPath := cfg.BillingLogPath(label)
	if _, err := store.EnsureCSV(logPath, models.Header()); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(billable))
	for _, rec := range billable {
		rows = append(rows, rec.Row())
	}
	appended, err := store.AppendCSV(logPath, rows)
	if err != nil {
		return nil, err
	}

	// The messaging stores must exist before fill and send run.
	pending := store.NewJSON[models.PendingMessage](cfg.PendingStorePath())
	if err := pending.EnsureCreated(); err != nil {
		return nil, err
	}
	sent := store.NewJSON[models.SentRecord](cfg.SentStorePath())
	if err := sent.EnsureCreated(); err != nil {
		return nil, err
	}

	return &ExtractionResult{
		PeriodLabel: label,
		Found:       len(records),
		Billable:    len(billable),
		Appended:    appended,
	}, nil
}
