package main

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		tag        TEXT NOT NULL DEFAULT '',
		detail     TEXT DEFAULT '',
		app        TEXT DEFAULT '',
		prev_tag   TEXT DEFAULT '',
		action     TEXT NOT NULL,
		is_similar INTEGER NOT NULL DEFAULT 1,
		distance   INTEGER NOT NULL DEFAULT 0,
		decided_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_action ON decisions(action);

	CREATE TABLE IF NOT EXISTS generations (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id   TEXT NOT NULL UNIQUE,
		tag          TEXT DEFAULT '',
		topic        TEXT DEFAULT '',
		tags         TEXT DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'pending',
		result_url   TEXT DEFAULT '',
		error        TEXT DEFAULT '',
		requested_at DATETIME NOT NULL,
		completed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_generations_requested_at ON generations(requested_at);

	CREATE TABLE IF NOT EXISTS genre_history (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		genre   TEXT NOT NULL,
		used_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_genre_history_used_at ON genre_history(used_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func InsertDecision(db *sql.DB, evt DecisionEvent) error {
	prevTag := ""
	if evt.PreviousContext != nil {
		prevTag = evt.PreviousContext.Tag
	}
	_, err := db.Exec(
		`INSERT INTO decisions (tag, detail, app, prev_tag, action, is_similar, distance, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.CurrentContext.Tag, evt.CurrentContext.Detail, evt.CurrentContext.App,
		prevTag, evt.Action, evt.IsSimilar, evt.Distance, evt.DecidedAt,
	)
	return err
}

func InsertGeneration(db *sql.DB, rec GenerationRecord) error {
	_, err := db.Exec(
		`INSERT INTO generations (attempt_id, tag, topic, tags, status, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.AttemptID, rec.Tag, rec.Topic, rec.Tags, rec.Status, rec.RequestedAt,
	)
	return err
}

func MarkGenerationDone(db *sql.DB, attemptID, resultURL string, completedAt time.Time) error {
	_, err := db.Exec(
		`UPDATE generations SET status = 'done', result_url = ?, completed_at = ? WHERE attempt_id = ?`,
		resultURL, completedAt, attemptID,
	)
	return err
}

func MarkGenerationFailed(db *sql.DB, attemptID, message string, completedAt time.Time) error {
	_, err := db.Exec(
		`UPDATE generations SET status = 'failed', error = ?, completed_at = ? WHERE attempt_id = ?`,
		message, completedAt, attemptID,
	)
	return err
}

func GetGenerationByAttemptID(db *sql.DB, attemptID string) (GenerationRecord, error) {
	var rec GenerationRecord
	var completedAt sql.NullTime
	err := db.QueryRow(
		`SELECT id, attempt_id, tag, topic, tags, status, result_url, error, requested_at, completed_at
		 FROM generations WHERE attempt_id = ?`,
		attemptID,
	).Scan(
		&rec.ID, &rec.AttemptID, &rec.Tag, &rec.Topic, &rec.Tags, &rec.Status,
		&rec.ResultURL, &rec.Error, &rec.RequestedAt, &completedAt,
	)
	if completedAt.Valid {
		rec.CompletedAt = completedAt.Time
	}
	return rec, err
}

// RecentGenres returns up to limit distinct genres, most recently used first.
func RecentGenres(db *sql.DB, limit int) ([]string, error) {
	rows, err := db.Query(
		`SELECT genre FROM genre_history ORDER BY used_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		key := strings.ToLower(strings.TrimSpace(g))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		genres = append(genres, g)
		if len(genres) == limit {
			break
		}
	}
	return genres, rows.Err()
}

func RecordGenres(db *sql.DB, genres []string, usedAt time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO genre_history (genre, used_at) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, err := stmt.Exec(g, usedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PruneHistory deletes decisions, terminal generations, and genre entries
// older than the cutoff. Pending generations are kept regardless of age.
func PruneHistory(db *sql.DB, olderThan time.Time) (decisions, generations int64, err error) {
	res, err := db.Exec(`DELETE FROM decisions WHERE decided_at < ?`, olderThan)
	if err != nil {
		return 0, 0, err
	}
	decisions, _ = res.RowsAffected()

	res, err = db.Exec(
		`DELETE FROM generations WHERE requested_at < ? AND status != 'pending'`, olderThan)
	if err != nil {
		return decisions, 0, err
	}
	generations, _ = res.RowsAffected()

	if _, err = db.Exec(`DELETE FROM genre_history WHERE used_at < ?`, olderThan); err != nil {
		return decisions, generations, err
	}
	return decisions, generations, nil
}

// ActivitySince summarizes detector activity for the maintenance report.
func ActivitySince(db *sql.DB, since time.Time) (decisions, switches, tracks int, err error) {
	if err = db.QueryRow(
		`SELECT COUNT(*) FROM decisions WHERE decided_at >= ?`, since).Scan(&decisions); err != nil {
		return
	}
	if err = db.QueryRow(
		`SELECT COUNT(*) FROM decisions WHERE decided_at >= ? AND action = ?`,
		since, ActionSwitch).Scan(&switches); err != nil {
		return
	}
	err = db.QueryRow(
		`SELECT COUNT(*) FROM generations WHERE requested_at >= ? AND status = 'done'`,
		since).Scan(&tracks)
	return
}
