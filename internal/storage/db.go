package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"simops/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS export_runs (
  id TEXT PRIMARY KEY,
  stamp TEXT NOT NULL,
  status TEXT NOT NULL,
  rowsTotal INTEGER NOT NULL DEFAULT 0,
  matched INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  unknown INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS export_artifacts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  carrier TEXT NOT NULL,
  path TEXT NOT NULL,
  records INTEGER NOT NULL,
  error TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES export_runs(id)
);
CREATE INDEX IF NOT EXISTS idx_export_artifacts_run ON export_artifacts(runId);

CREATE TABLE IF NOT EXISTS unknown_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  iccid TEXT NOT NULL,
  imei TEXT NOT NULL,
  FOREIGN KEY(runId) REFERENCES export_runs(id)
);

CREATE TABLE IF NOT EXISTS scanned_sims (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  number TEXT NOT NULL UNIQUE,
  operator TEXT NOT NULL,
  raw TEXT NOT NULL,
  source TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scanned_sims_operator ON scanned_sims(operator);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.ExportRunRow) error {
	_, err := d.conn.Exec(`
INSERT INTO export_runs (id, stamp, status, rowsTotal, matched, skipped, unknown, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Stamp, run.Status, run.Rows, run.Matched, run.Skipped, run.Unknown, nullString(run.Error))
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.ExportRunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, stamp, status, rowsTotal, matched, skipped, unknown, COALESCE(error, ''), startedAt
FROM export_runs ORDER BY startedAt DESC, stamp DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ExportRunRow
	for rows.Next() {
		var r internal.ExportRunRow
		if err := rows.Scan(&r.ID, &r.Stamp, &r.Status, &r.Rows, &r.Matched, &r.Skipped, &r.Unknown, &r.Error, &r.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) InsertArtifact(a internal.ArtifactRow) error {
	_, err := d.conn.Exec(`
INSERT INTO export_artifacts (runId, carrier, path, records, error) VALUES (?, ?, ?, ?, ?)
`, a.RunID, a.Carrier, a.Path, a.Records, nullString(a.Error))
	return err
}

func (d *DB) ListArtifacts(runID string) ([]internal.ArtifactRow, error) {
	rows, err := d.conn.Query(`
SELECT runId, carrier, path, records, COALESCE(error, '') FROM export_artifacts WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ArtifactRow
	for rows.Next() {
		var a internal.ArtifactRow
		if err := rows.Scan(&a.RunID, &a.Carrier, &a.Path, &a.Records, &a.Error); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (d *DB) InsertUnknownRows(runID string, unknown []internal.UnknownRow) error {
	if len(unknown) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO unknown_rows (runId, rowNo, iccid, imei) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range unknown {
		if _, err := stmt.Exec(runID, u.RowNo, u.ICCID, u.IMEI); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListUnknownRows(runID string) ([]internal.UnknownRow, error) {
	rows, err := d.conn.Query(`SELECT rowNo, iccid, imei FROM unknown_rows WHERE runId = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UnknownRow
	for rows.Next() {
		var u internal.UnknownRow
		if err := rows.Scan(&u.RowNo, &u.ICCID, &u.IMEI); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpsertScannedSims stores canonical SIM numbers. A number seen again keeps
// its row and gets the latest operator and raw text.
func (d *DB) UpsertScannedSims(cards []internal.SimCard, source string) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO scanned_sims (number, operator, raw, source) VALUES (?, ?, ?, ?)
ON CONFLICT(number) DO UPDATE SET
  operator=excluded.operator,
  raw=excluded.raw,
  source=excluded.source,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, c := range cards {
		if c.Number == "" {
			continue
		}
		if _, err := stmt.Exec(c.Number, c.Operator, c.Raw, source); err != nil {
			return 0, err
		}
		stored++
	}
	return stored, tx.Commit()
}

func (d *DB) ListScannedSims(operator string) ([]internal.ScannedSimRow, error) {
	query := `SELECT id, number, operator, raw, source, createdAt FROM scanned_sims`
	args := []any{}
	if operator != "" {
		query += ` WHERE operator = ?`
		args = append(args, operator)
	}
	query += ` ORDER BY id ASC`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ScannedSimRow
	for rows.Next() {
		var r internal.ScannedSimRow
		if err := rows.Scan(&r.ID, &r.Number, &r.Operator, &r.Raw, &r.Source, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
