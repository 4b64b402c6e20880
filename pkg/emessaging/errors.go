package emessaging

import "errors"

// ErrFileNotFound indicates the source workbook does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrSheetNotFound indicates the configured worksheet is missing from
// the workbook.
var ErrSheetNotFound = errors.New("worksheet not found")
