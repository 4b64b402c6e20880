package emessaging

import (
	"fmt"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/render"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

// LogSummary aggregates a billing log by location and money columns.
type LogSummary struct {
	LumoClients    int
	ChanikaClients int
	TotalClients   int
	CurrentCharges int64
	PreviousDebts  int64
	TotalBills     int64
}

// SummarizeLog reads a billing log and computes its summary.
func SummarizeLog(path string) (*LogSummary, error) {
	rows, err := store.CSVRows(path)
	if err != nil {
		return nil, err
	}

	s := &LogSummary{}
	for _, row := range rows {
		rec, err := models.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("billing log %q: %w", path, err)
		}
		if rec.Location == models.LocationLumo {
			s.LumoClients++
		} else {
			s.ChanikaClients++
		}
		s.TotalClients++
		s.CurrentCharges += rec.NetCharge
		s.PreviousDebts += rec.Adjustments
		s.TotalBills += rec.FinalBill
	}
	return s, nil
}

// Rows renders the summary for console display.
func (s LogSummary) Rows() [][]string {
	return [][]string{
		{"Lumo clients", fmt.Sprintf("%d", s.LumoClients)},
		{"Chanika clients", fmt.Sprintf("%d", s.ChanikaClients)},
		{"Total clients", fmt.Sprintf("%d", s.TotalClients)},
		{"Current Bills", render.FormatInt(s.CurrentCharges)},
		{"Previous debts", render.FormatInt(s.PreviousDebts)},
		{"Total Bills", render.FormatInt(s.TotalBills)},
	}
}
