package metadata

import (
	"context"
	"database/sql"
)

// Database is the read side of the results index.
type Database struct {
	db                 *sql.DB
	preparedStatements map[preparedStatementKey]*sql.Stmt
}

type preparedStatementKey string

const (
	searchStmt preparedStatementKey = "searchStmt"
)

func OpenDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	preparedStatements := make(map[preparedStatementKey]*sql.Stmt)
	for key, query := range map[preparedStatementKey]string{
		searchStmt: `SELECT videos.path, videos.engine, detections.frame_ts_ms, detections.text, detections.confidence FROM detections INNER JOIN detections_fts ON detections.id = detections_fts.rowid INNER JOIN videos ON detections.video_id = videos.id WHERE detections_fts MATCH ? LIMIT 100`,
	} {
		stmt, err := db.Prepare(query)
		if err != nil {
			db.Close() // nolint: errcheck
			return nil, err
		}

		preparedStatements[key] = stmt
	}

	return &Database{
		db:                 db,
		preparedStatements: preparedStatements,
	}, nil
}

type SearchResult struct {
	Path       string  `json:"path"`
	Engine     string  `json:"engine"`
	Timestamp  int     `json:"timestamp"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Search returns up to 100 detections matching the full-text query.
func (d *Database) Search(ctx context.Context, queryString string) ([]SearchResult, error) {
	rows, err := d.preparedStatements[searchStmt].QueryContext(ctx, queryString)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var result SearchResult
		err := rows.Scan(&result.Path, &result.Engine, &result.Timestamp, &result.Text, &result.Confidence)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

func (d *Database) Close() error {
	return d.db.Close()
}
