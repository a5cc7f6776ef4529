package sim

import (
	"encoding/json"
	"os"

	"galaxysim/internal/universe"
)

// FileWriter writes journal rows to a JSONL file.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter, truncating any existing file.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single journal row.
func (f *FileWriter) Write(row universe.JournalRow) error {
	return f.enc.Encode(row)
}

// WriteBatch logs multiple journal rows.
func (f *FileWriter) WriteBatch(rows []universe.JournalRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
