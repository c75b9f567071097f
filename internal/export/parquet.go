package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// BatchRow is one image in a batch captioning report.
type BatchRow struct {
	Filename       string   `parquet:"filename"`
	Format         string   `parquet:"format"`
	Width          int64    `parquet:"width"`
	Height         int64    `parquet:"height"`
	Checksum       string   `parquet:"checksum"`
	RawText        string   `parquet:"raw_text"`
	Candidates     []string `parquet:"candidates,list"`
	CandidateCount int64    `parquet:"candidate_count"`
	Error          string   `parquet:"error"`
	ElapsedMillis  int64    `parquet:"elapsed_ms"`
}

// WriteParquet writes rows to w as a single Parquet file.
func WriteParquet(w io.Writer, rows []BatchRow) error {
	writer := parquet.NewGenericWriter[BatchRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// SaveParquet writes rows to path.
func SaveParquet(path string, rows []BatchRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return WriteParquet(f, rows)
}

// ReadParquet loads a report written by WriteParquet.
func ReadParquet(path string) ([]BatchRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	rows, err := parquet.Read[BatchRow](f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	return rows, nil
}
