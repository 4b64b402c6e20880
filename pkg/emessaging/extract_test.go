package emessaging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

// writeTestWorkbook builds a worksheet with two billing boxes: Jane
// with no contact number and a large bill, and a below-threshold
// customer that the filter must drop.
func writeTestWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	set := func(col, row int, value interface{}) {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("set cell %s: %v", cell, err)
		}
	}

	// Jane's box, anchored at A3. No contact anywhere in the box.
	set(1, 3, "Name/Tel:")
	set(2, 3, "Jane")
	set(5, 7, 1530.4)
	set(5, 8, 5000)
	set(5, 9, 1200)
	set(2, 13, 6200)

	// A small bill in the second box column, anchored at G3.
	set(7, 3, "Name/Tel:")
	set(8, 3, "Asha")
	set(8, 13, 45)

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OwnerNumber = "+255773000000"
	cfg.SourcePath = filepath.Join(dir, "source_data.xlsx")
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.StorageDir = filepath.Join(dir, "storage")
	return cfg
}

func TestRunExtraction(t *testing.T) {
	cfg := testConfig(t)
	writeTestWorkbook(t, cfg.SourcePath)

	readingDate := time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC)
	result, err := RunExtraction(cfg, readingDate)
	if err != nil {
		t.Fatalf("RunExtraction failed: %v", err)
	}

	if result.PeriodLabel != "Dec, 2025" {
		t.Errorf("expected period label Dec, 2025, got %q", result.PeriodLabel)
	}
	if result.Found != 2 {
		t.Errorf("expected 2 boxes found, got %d", result.Found)
	}
	if result.Billable != 1 {
		t.Errorf("expected 1 billable record, got %d", result.Billable)
	}
	if result.Appended != 1 {
		t.Errorf("expected 1 appended row, got %d", result.Appended)
	}

	rows, err := store.CSVRows(cfg.BillingLogPath(result.PeriodLabel))
	if err != nil {
		t.Fatalf("read billing log: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row in billing log, got %d", len(rows))
	}

	rec, err := models.FromRow(rows[0])
	if err != nil {
		t.Fatalf("parse billing row: %v", err)
	}
	if rec.CustomerName != "Jane" {
		t.Errorf("expected Jane, got %q", rec.CustomerName)
	}
	if rec.Contact != cfg.OwnerNumber {
		t.Errorf("expected owner fallback contact, got %q", rec.Contact)
	}
	if rec.FinalBill != 6200 {
		t.Errorf("expected final bill 6200, got %d", rec.FinalBill)
	}

	// The messaging stores must exist after an extraction run.
	for _, path := range []string{cfg.PendingStorePath(), cfg.SentStorePath()} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected store %q to exist: %v", path, err)
		}
	}
}

func TestRunExtractionIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeTestWorkbook(t, cfg.SourcePath)
	readingDate := time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC)

	if _, err := RunExtraction(cfg, readingDate); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := RunExtraction(cfg, readingDate)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Appended != 0 {
		t.Errorf("expected rerun to append nothing, got %d", second.Appended)
	}
}

func TestRunExtractionMissingSource(t *testing.T) {
	cfg := testConfig(t)

	_, err := RunExtraction(cfg, time.Now())
	if err == nil {
		t.Fatal("expected an error for a missing workbook")
	}
}

func TestSummarizeLog(t *testing.T) {
	cfg := testConfig(t)
	logPath := cfg.BillingLogPath("Jan, 2026")
	if _, err := store.EnsureCSV(logPath, models.Header()); err != nil {
		t.Fatalf("create log: %v", err)
	}

	records := []models.BillingRecord{
		{ReadingDate: models.SentinelDate, CustomerName: "Jane", Contact: "+255", CommApp: "sms", Location: models.LocationLumo, NetCharge: 5000, Adjustments: 1200, FinalBill: 6200},
		{ReadingDate: models.SentinelDate, CustomerName: "Asha", Contact: "+255", CommApp: "sms", Location: models.LocationChanika, NetCharge: 800, Adjustments: 100, FinalBill: 900},
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	if _, err := store.AppendCSV(logPath, rows); err != nil {
		t.Fatalf("append rows: %v", err)
	}

	s, err := SummarizeLog(logPath)
	if err != nil {
		t.Fatalf("SummarizeLog failed: %v", err)
	}
	if s.LumoClients != 1 || s.ChanikaClients != 1 || s.TotalClients != 2 {
		t.Errorf("unexpected client counts: %+v", s)
	}
	if s.CurrentCharges != 5800 || s.PreviousDebts != 1300 || s.TotalBills != 7100 {
		t.Errorf("unexpected totals: %+v", s)
	}

	summaryRows := s.Rows()
	if summaryRows[5][1] != "7,100" {
		t.Errorf("expected formatted total 7,100, got %q", summaryRows[5][1])
	}
}
