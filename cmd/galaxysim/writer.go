package main

import (
	"os"

	"galaxysim/internal/config"
	"galaxysim/internal/sim"
)

// newWriter sets up the journal writer chain based on flags and env
// vars. It returns the writer and a cleanup function to close any
// resources.
func newWriter(cfg *config.Config, printOnly, colorize bool, logFile string) (sim.JournalWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(cfg, printOnly, colorize)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { fw.Close() }
	return sim.NewMultiWriter(writer, fw), cleanup, nil
}

// baseWriter chooses the underlying writer based on the printOnly flag
// and env vars.
func baseWriter(cfg *config.Config, printOnly, colorize bool) (sim.JournalWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if colorize {
			return sim.NewColorStdoutWriter(cfg), nil
		}
		return &sim.StdoutWriter{}, nil
	}
	return sim.NewGreptimeDBWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), "public")
}
