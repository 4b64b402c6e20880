// Package models defines data structures for billing extraction and messaging.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Location identifies the service zone a customer belongs to.
// The zone is derived from cell formatting in the source worksheet:
// an unset border color means Lumo, a colored border means Chanika.
type Location string

const (
	LocationLumo    Location = "Lumo"
	LocationChanika Location = "Chanika"
)

// SentinelDate replaces missing or non-date reading dates.
var SentinelDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateLayout is the layout used for reading dates in the billing log.
const DateLayout = "02-Jan-2006"

// BillingRecord holds one customer's billing data for a single period.
// Numeric fields are always coerced to their zero default before the
// record is serialized; a record never carries an empty numeric column.
type BillingRecord struct {
	// ReadingDate is the date the meter was read.
	ReadingDate time.Time `json:"reading_date"`
	// CustomerName identifies the customer; empty means non-billable.
	CustomerName string `json:"customer_name"`
	// Contact is the phone number in international format.
	Contact string `json:"contact"`
	// CommApp is the preferred messaging channel, "sms" by default.
	CommApp string `json:"comm_app"`
	// Location is the service zone (Lumo or Chanika).
	Location Location `json:"location"`
	// LitersUsed is the water usage, rounded to one decimal place.
	LitersUsed decimal.Decimal `json:"liters_used"`
	// NetCharge is the current period charge in whole currency units.
	NetCharge int64 `json:"net_charge"`
	// Adjustments carries previous debts in whole currency units.
	Adjustments int64 `json:"adjustments"`
	// FinalBill is the total payable amount in whole currency units.
	FinalBill int64 `json:"final_bill"`
}

// Header returns the column header of the tabular billing log.
func Header() []string {
	return []string{
		"Reading Date",
		"Customer Name",
		"Contacts",
		"Communication App",
		"Location",
		"Liters Used",
		"Net Charge",
		"Adjustments",
		"Final Bill",
	}
}

// Row serializes the record into one billing-log row.
func (r BillingRecord) Row() []string {
	return []string{
		r.ReadingDate.Format(DateLayout),
		r.CustomerName,
		r.Contact,
		r.CommApp,
		string(r.Location),
		r.LitersUsed.Round(1).StringFixed(1),
		fmt.Sprintf("%d", r.NetCharge),
		fmt.Sprintf("%d", r.Adjustments),
		fmt.Sprintf("%d", r.FinalBill),
	}
}

// FromRow parses a billing-log row back into a BillingRecord.
func FromRow(row []string) (BillingRecord, error) {
	if len(row) != len(Header()) {
		return BillingRecord{}, fmt.Errorf("billing row has %d columns, want %d", len(row), len(Header()))
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return BillingRecord{}, fmt.Errorf("parse reading date %q: %w", row[0], err)
	}

	liters, err := decimal.NewFromString(strings.TrimSpace(row[5]))
	if err != nil {
		return BillingRecord{}, fmt.Errorf("parse liters %q: %w", row[5], err)
	}

	var money [3]int64
	for i, col := range []int{6, 7, 8} {
		d, err := decimal.NewFromString(strings.TrimSpace(row[col]))
		if err != nil {
			return BillingRecord{}, fmt.Errorf("parse amount %q (column %d): %w", row[col], col, err)
		}
		money[i] = d.Truncate(0).IntPart()
	}

	return BillingRecord{
		ReadingDate:  date,
		CustomerName: row[1],
		Contact:      row[2],
		CommApp:      row[3],
		Location:     Location(row[4]),
		LitersUsed:   liters,
		NetCharge:    money[0],
		Adjustments:  money[1],
		FinalBill:    money[2],
	}, nil
}
