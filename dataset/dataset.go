// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/tedrag/core"
)

// DefaultRows is the number of talks kept by Reduce.
const DefaultRows = 50

// Column names read from the talk dataset.
const (
	ColumnTalkID     = "talk_id"
	ColumnTitle      = "title"
	ColumnSpeaker    = "speaker_1"
	ColumnURL        = "url"
	ColumnTranscript = "transcript"
)

var requiredColumns = []string{ColumnTalkID, ColumnTitle, ColumnSpeaker, ColumnURL, ColumnTranscript}

// newReader returns a CSV reader tolerant of the quirks in exported talk datasets.
func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// Reduce copies the header and the first n data rows of src into dst.
// Every column is preserved. The number of data rows written is returned.
func Reduce(src, dst string, n int) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create reduced dataset: %w", err)
	}

	written, err := ReduceRows(in, out, n)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}

	slog.Default().With("component", "dataset").Info("reduced dataset written",
		"src", src, "dst", dst, "rows", written)
	return written, nil
}

// ReduceRows streams the header and the first n data rows from r to w.
func ReduceRows(r io.Reader, w io.Writer, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRowCount, n)
	}

	reader := newReader(r)
	writer := csv.NewWriter(w)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrEmptyDataset
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := writer.Write(header); err != nil {
		return 0, err
	}

	written := 0
	for written < n {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("read row %d: %w", written+1, err)
		}
		if err := writer.Write(record); err != nil {
			return written, err
		}
		written++
	}

	writer.Flush()
	return written, writer.Error()
}

// Load reads every talk from the CSV file at path.
func Load(path string) ([]core.Talk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ReadTalks(f)
}

// ReadTalks decodes talk records, locating columns by header name.
func ReadTalks(r io.Reader) ([]core.Talk, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var talks []core.Talk
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		talks = append(talks, core.Talk{
			ID:         field(record, index[ColumnTalkID]),
			Title:      field(record, index[ColumnTitle]),
			Speaker:    field(record, index[ColumnSpeaker]),
			URL:        field(record, index[ColumnURL]),
			Transcript: field(record, index[ColumnTranscript]),
		})
	}

	return talks, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM left by spreadsheet exports.
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

// field returns the value at i, or "" for short rows.
func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
