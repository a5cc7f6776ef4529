// Writer implementation printing journal rows to STDOUT
package sim

import (
	"encoding/json"
	"fmt"

	"galaxysim/internal/universe"
)

// StdoutWriter prints journal rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single journal row.
func (w *StdoutWriter) Write(row universe.JournalRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple journal rows.
func (w *StdoutWriter) WriteBatch(rows []universe.JournalRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}
