// ColorStdoutWriter prints human-friendly, colorized journal rows to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"galaxysim/internal/config"
	"galaxysim/internal/universe"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints journal rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg         *config.Config
	out         io.Writer
	once        sync.Once
	ownerColors map[string]string
	colorIdx    int
}

var ownerPalette = []string{colorRed, colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		cfg:         cfg,
		out:         os.Stdout,
		ownerColors: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) getOwnerColor(id string) string {
	if c, ok := w.ownerColors[id]; ok {
		return c
	}
	c := ownerPalette[w.colorIdx%len(ownerPalette)]
	w.ownerColors[id] = c
	w.colorIdx++
	return c
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Universe Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Universe:\t%s\n", w.cfg.Universe)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval())
	fmt.Fprintf(tw, "Tick/Hour Divisor:\t%d\n", w.cfg.TickHourDivisor)
	fmt.Fprintf(tw, "Debris Ratio:\t%.2f\n", w.cfg.DebrisRatio)
	fmt.Fprintf(tw, "Seed:\t%d\n", w.cfg.Seed)
	tw.Flush()

	fmt.Fprintln(w.out, "\nPlayers:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tHome\n")
	for _, p := range w.cfg.Players {
		col := w.getOwnerColor(p.ID)
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\n", col, p.ID, colorReset, p.Name, p.Home)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single journal row in colorized format.
func (w *ColorStdoutWriter) Write(row universe.JournalRow) error {
	w.once.Do(w.printOverview)

	kindColor := colorGreen
	switch row.Kind {
	case universe.EventCombat, universe.EventColonizationFailed:
		kindColor = colorRed
	case universe.EventGuardRepair:
		kindColor = colorYellow
	case universe.EventDispatch, universe.EventRecall:
		kindColor = colorCyan
	case universe.EventColonizationSuccess, universe.EventExplorationComplete:
		kindColor = colorMagenta
	}

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorBlue, row.Tick, colorReset)
	fmt.Fprintf(w.out, "%s%s%s", kindColor, row.Kind, colorReset)
	if row.Owner != "" {
		fmt.Fprintf(w.out, " %sowner=%s%s", w.getOwnerColor(row.Owner), row.Owner, colorReset)
	}
	if row.FleetID != "" {
		fmt.Fprintf(w.out, " fleet=%s", row.FleetID)
	}
	if row.PlanetID != "" {
		fmt.Fprintf(w.out, " planet=%s", row.PlanetID)
	}
	if row.Metal != 0 || row.Crystal != 0 || row.Deuterium != 0 {
		fmt.Fprintf(w.out, " %sm=%s c=%s d=%s%s", colorYellow,
			humanize.Comma(row.Metal), humanize.Comma(row.Crystal), humanize.Comma(row.Deuterium), colorReset)
	}
	if row.Details != "" {
		fmt.Fprintf(w.out, " %s%s%s", colorGray, row.Details, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple journal rows.
func (w *ColorStdoutWriter) WriteBatch(rows []universe.JournalRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}
