// Package parser locates and extracts customer billing boxes from a worksheet.
package parser

// Offset is a cell position relative to a box anchor.
type Offset struct {
	Row int
	Col int
}

// BoxLayout maps each billing field to its position relative to the
// anchor cell. The layout mirrors the fixed box template used on the
// billing worksheets; changing the worksheet layout means changing
// exactly this table.
type BoxLayout struct {
	// Name is the customer name cell.
	Name Offset
	// Contact is the primary phone number cell.
	Contact Offset
	// ContactAlt is probed when the primary contact cell is empty.
	ContactAlt Offset
	// CommApp is the preferred messaging channel cell.
	CommApp Offset
	// BorderProbe is the cell whose top border color decides the zone.
	BorderProbe Offset
	// ReadingDate is the meter reading date cell.
	ReadingDate Offset
	// LitersUsed is the water usage cell.
	LitersUsed Offset
	// NetCharge is the current charge cell.
	NetCharge Offset
	// Adjustments is the previous-debt cell.
	Adjustments Offset
	// FinalBill is the total payable cell.
	FinalBill Offset
}

// DefaultBoxLayout returns the layout of the current billing box template.
func DefaultBoxLayout() BoxLayout {
	return BoxLayout{
		Name:        Offset{Row: 0, Col: 1},
		Contact:     Offset{Row: -1, Col: 1},
		ContactAlt:  Offset{Row: 0, Col: 3},
		CommApp:     Offset{Row: -1, Col: 3},
		BorderProbe: Offset{Row: -1, Col: 0},
		ReadingDate: Offset{Row: 1, Col: 4},
		LitersUsed:  Offset{Row: 4, Col: 4},
		NetCharge:   Offset{Row: 5, Col: 4},
		Adjustments: Offset{Row: 6, Col: 4},
		FinalBill:   Offset{Row: 10, Col: 1},
	}
}

// ScanParams bounds the anchor scan over the worksheet grid.
type ScanParams struct {
	// BoxColumns is the number of horizontal box columns on the sheet.
	BoxColumns int
	// BoxStride is the width of one box in worksheet columns.
	BoxStride int
	// RowBound is the number of rows walked per box column; it covers
	// the largest supported sheet.
	RowBound int
	// Marker is the anchor text that starts a billing box.
	Marker string
}

// DefaultScanParams returns scan bounds for the current worksheet format.
func DefaultScanParams() ScanParams {
	return ScanParams{
		BoxColumns: 3,
		BoxStride:  6,
		RowBound:   910,
		Marker:     "Name/Tel:",
	}
}
