package sim

import (
	"galaxysim/internal/universe"
)

// MultiWriter fans journal rows out to multiple writers.
type MultiWriter struct {
	writers []JournalWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...JournalWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a journal row to all writers.
func (mw *MultiWriter) Write(row universe.JournalRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple journal rows to all writers, using batch
// mode where supported.
func (mw *MultiWriter) WriteBatch(rows []universe.JournalRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchJournalWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}
