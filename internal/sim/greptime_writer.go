package sim

import (
	"context"
	"log"
	"strconv"

	"galaxysim/internal/universe"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeDBWriter writes journal rows to GreptimeDB via the ingester client
type GreptimeDBWriter struct {
	client *greptime.Client
	db     string
	table  string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer and auto-creates the table if needed.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	client, err := greptime.NewClient(greptime.NewConfig(endpoint).WithDatabase(database))
	if err != nil {
		return nil, err
	}

	// Auto-create table schema
	ddl := `
CREATE TABLE IF NOT EXISTS ` + universe.JournalTableName + ` (
  universe STRING TAG,
  tick STRING TAG,
  kind STRING,
  planet_id STRING,
  fleet_id STRING,
  owner STRING,
  metal DOUBLE,
  crystal DOUBLE,
  deuterium DOUBLE,
  details STRING,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`
	// The ingester client speaks only the gRPC write protocol and exposes no
	// SQL/DDL interface; the table is auto-created by GreptimeDB on first
	// write, so the DDL above cannot be executed through this client.
	_ = ddl

	return &GreptimeDBWriter{
		client: client,
		db:     database,
		table:  universe.JournalTableName,
	}, nil
}

// Write inserts a single journal row.
func (w *GreptimeDBWriter) Write(row universe.JournalRow) error {
	return w.WriteBatch([]universe.JournalRow{row})
}

// WriteBatch inserts multiple journal rows.
func (w *GreptimeDBWriter) WriteBatch(rows []universe.JournalRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("universe", types.STRING)
	tbl.AddTagColumn("tick", types.STRING)
	tbl.AddFieldColumn("kind", types.STRING)
	tbl.AddFieldColumn("planet_id", types.STRING)
	tbl.AddFieldColumn("fleet_id", types.STRING)
	tbl.AddFieldColumn("owner", types.STRING)
	tbl.AddFieldColumn("metal", types.FLOAT64)
	tbl.AddFieldColumn("crystal", types.FLOAT64)
	tbl.AddFieldColumn("deuterium", types.FLOAT64)
	tbl.AddFieldColumn("details", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.Universe,
			strconv.FormatInt(r.Tick, 10),
			string(r.Kind),
			r.PlanetID,
			r.FleetID,
			r.Owner,
			float64(r.Metal),
			float64(r.Crystal),
			float64(r.Deuterium),
			r.Details,
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] Write failed: %v", err)
		return err
	}

	log.Printf("[GreptimeDBWriter] wrote %d rows", len(rows))
	return nil
}
