package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
)

// BoxError reports a structural failure while reading a billing box.
// It carries enough location context to find the offending cell without
// re-running the extraction.
type BoxError struct {
	Sheet string
	Cell  string
	Field string
	Err   error
}

func (e *BoxError) Error() string {
	return fmt.Sprintf("billing box field %q at %s!%s: %v", e.Field, e.Sheet, e.Cell, e.Err)
}

func (e *BoxError) Unwrap() error {
	return e.Err
}

// Anchor is the worksheet coordinate of a box anchor cell (1-based).
type Anchor struct {
	Col int
	Row int
}

// CellName returns the A1-style name of the anchor cell.
func (a Anchor) CellName() string {
	name, _ := excelize.CoordinatesToCellName(a.Col, a.Row)
	return name
}

// mergedRange is a merged cell range in column/row coordinates.
type mergedRange struct {
	startCol, startRow int
	endCol, endRow     int
}

// shadows reports whether the cell lies inside the range without being
// its top-left cell. Such cells repeat the anchor value in excelize and
// must not be inspected during the scan.
func (m mergedRange) shadows(col, row int) bool {
	inside := col >= m.startCol && col <= m.endCol && row >= m.startRow && row <= m.endRow
	return inside && !(col == m.startCol && row == m.startRow)
}

func loadMergedRanges(f *excelize.File, sheet string) ([]mergedRange, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells of %q: %w", sheet, err)
	}

	ranges := make([]mergedRange, 0, len(cells))
	for _, mc := range cells {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range start %q: %w", mc.GetStartAxis(), err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range end %q: %w", mc.GetEndAxis(), err)
		}
		ranges = append(ranges, mergedRange{startCol, startRow, endCol, endRow})
	}
	return ranges, nil
}

// FindAnchors scans the worksheet grid for billing box anchors.
// It walks params.BoxColumns box columns left to right, each
// params.RowBound rows deep, and returns every cell whose text contains
// the anchor marker. Cells shadowed by a merged range are skipped
// without being inspected.
func FindAnchors(f *excelize.File, sheet string, params ScanParams) ([]Anchor, error) {
	merged, err := loadMergedRanges(f, sheet)
	if err != nil {
		return nil, err
	}

	var anchors []Anchor
	for boxCol := 0; boxCol < params.BoxColumns; boxCol++ {
		col := 1 + boxCol*params.BoxStride
		for row := 1; row <= params.RowBound; row++ {
			if shadowed(merged, col, row) {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, fmt.Errorf("cell name for (%d,%d): %w", col, row, err)
			}
			value, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("read cell %s!%s: %w", sheet, cell, err)
			}
			if strings.Contains(value, params.Marker) {
				anchors = append(anchors, Anchor{Col: col, Row: row})
			}
		}
	}
	return anchors, nil
}

func shadowed(merged []mergedRange, col, row int) bool {
	for _, m := range merged {
		if m.shadows(col, row) {
			return true
		}
	}
	return false
}

// ExtractBox reads one billing box relative to its anchor and returns
// the normalized record. ownerNumber is the fallback contact used when
// the customer has no phone number on the sheet. Any offset that lands
// outside the sheet or a malformed border style aborts with a BoxError;
// no partial record is returned.
func ExtractBox(f *excelize.File, sheet string, anchor Anchor, layout BoxLayout, ownerNumber string) (models.BillingRecord, error) {
	read := func(field string, off Offset) (string, error) {
		col := anchor.Col + off.Col
		row := anchor.Row + off.Row
		if col < 1 || row < 1 {
			return "", &BoxError{
				Sheet: sheet,
				Cell:  anchor.CellName(),
				Field: field,
				Err:   fmt.Errorf("offset (%d,%d) points outside the sheet", off.Row, off.Col),
			}
		}
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return "", &BoxError{Sheet: sheet, Cell: anchor.CellName(), Field: field, Err: err}
		}
		value, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return "", &BoxError{Sheet: sheet, Cell: cell, Field: field, Err: err}
		}
		return strings.TrimSpace(value), nil
	}

	name, err := read("name", layout.Name)
	if err != nil {
		return models.BillingRecord{}, err
	}

	contact, err := read("contact", layout.Contact)
	if err != nil {
		return models.BillingRecord{}, err
	}
	if contact == "" {
		if contact, err = read("contact", layout.ContactAlt); err != nil {
			return models.BillingRecord{}, err
		}
	}

	commApp, err := read("commApp", layout.CommApp)
	if err != nil {
		return models.BillingRecord{}, err
	}
	if commApp == "" {
		commApp = "sms"
	}

	location, err := probeLocation(f, sheet, anchor, layout.BorderProbe)
	if err != nil {
		return models.BillingRecord{}, err
	}

	rawDate, err := read("readingDate", layout.ReadingDate)
	if err != nil {
		return models.BillingRecord{}, err
	}

	liters, err := read("litersUsed", layout.LitersUsed)
	if err != nil {
		return models.BillingRecord{}, err
	}
	netCharge, err := read("netCharge", layout.NetCharge)
	if err != nil {
		return models.BillingRecord{}, err
	}
	adjustments, err := read("adjustments", layout.Adjustments)
	if err != nil {
		return models.BillingRecord{}, err
	}
	finalBill, err := read("finalBill", layout.FinalBill)
	if err != nil {
		return models.BillingRecord{}, err
	}

	return models.BillingRecord{
		ReadingDate:  parseReadingDate(rawDate),
		CustomerName: name,
		Contact:      NormalizePhone(contact, ownerNumber),
		CommApp:      commApp,
		Location:     location,
		LitersUsed:   parseDecimal(liters).Round(1),
		NetCharge:    parseDecimal(netCharge).Truncate(0).IntPart(),
		Adjustments:  parseDecimal(adjustments).Truncate(0).IntPart(),
		FinalBill:    parseDecimal(finalBill).Truncate(0).IntPart(),
	}, nil
}

// probeLocation classifies the service zone from the top border color of
// the probe cell. No color means Lumo, any color means Chanika.
func probeLocation(f *excelize.File, sheet string, anchor Anchor, off Offset) (models.Location, error) {
	col := anchor.Col + off.Col
	row := anchor.Row + off.Row
	if col < 1 || row < 1 {
		return "", &BoxError{
			Sheet: sheet,
			Cell:  anchor.CellName(),
			Field: "location",
			Err:   fmt.Errorf("border probe offset (%d,%d) points outside the sheet", off.Row, off.Col),
		}
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", &BoxError{Sheet: sheet, Cell: anchor.CellName(), Field: "location", Err: err}
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", &BoxError{Sheet: sheet, Cell: cell, Field: "location", Err: err}
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return "", &BoxError{Sheet: sheet, Cell: cell, Field: "location", Err: err}
	}

	for _, border := range style.Border {
		if border.Type == "top" && border.Color != "" {
			return models.LocationChanika, nil
		}
	}
	return models.LocationLumo, nil
}

// dateLayouts covers the formats excelize renders date cells in,
// depending on the number format applied to the cell.
var dateLayouts = []string{
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"02-Jan-2006",
	"2-Jan-06",
}

// parseReadingDate parses a date cell value, returning the sentinel date
// for empty cells and for textual values that are not dates. A raw
// string is never propagated as a date.
func parseReadingDate(s string) time.Time {
	if s == "" {
		return models.SentinelDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return models.SentinelDate
}

// parseDecimal parses a numeric cell value, defaulting to zero for
// empty or non-numeric content.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
