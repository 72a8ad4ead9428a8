package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("dataset is missing required column")

	// ErrEmptyDataset is returned when the file has no header row.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrInvalidRowCount is returned when a negative row count is requested.
	ErrInvalidRowCount = errors.New("row count must not be negative")
)
