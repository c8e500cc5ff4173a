package metadata

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultDatabasePath is where the results index lives unless configured.
const DefaultDatabasePath = "ocr_results.db"

const (
	insertVideoStmt        preparedStatementKey = "insertVideoStmt"
	insertDetectionStmt    preparedStatementKey = "insertDetectionStmt"
	insertDetectionFtsStmt preparedStatementKey = "insertDetectionFtsStmt"
)

// Recorder is the write side of the results index.
type Recorder struct {
	db                 *sql.DB
	preparedStatements map[preparedStatementKey]*sql.Stmt
}

// NewRecorder opens (creating if necessary) the results database at dbPath.
func NewRecorder(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	schemaBytes, err := SchemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Msg("Failed to read schema.sql")
		return nil, err
	}

	// Execute the schema
	_, err = db.Exec(string(schemaBytes))
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Msg("Failed to execute schema.sql")
		return nil, err
	}

	preparedStatements := make(map[preparedStatementKey]*sql.Stmt)
	for key, stmt := range map[preparedStatementKey]string{
		insertVideoStmt:        `INSERT INTO videos (path, engine, processed_at, duration_seconds, frame_count, keyword) VALUES (?, ?, ?, ?, ?, ?)`,
		insertDetectionStmt:    `INSERT INTO detections (video_id, frame_ts_ms, text, confidence) VALUES (?, ?, ?, ?)`,
		insertDetectionFtsStmt: `INSERT INTO detections_fts (rowid, text) VALUES (?, ?)`,
	} {
		preparedStmt, err := db.Prepare(stmt)
		if err != nil {
			db.Close() // nolint: errcheck
			log.Error().Err(err).Msg("Failed to prepare statement")
			return nil, err
		}

		preparedStatements[key] = preparedStmt
	}

	return &Recorder{
		db:                 db,
		preparedStatements: preparedStatements,
	}, nil
}

// AddVideoResult inserts one (video, engine) run and its detections in a
// single transaction.
func (r *Recorder) AddVideoResult(ctx context.Context, record VideoRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // nolint: errcheck

	res, err := tx.StmtContext(ctx, r.preparedStatements[insertVideoStmt]).ExecContext(ctx,
		record.Path,
		record.Engine,
		record.ProcessedAt.Format(time.RFC3339),
		record.DurationSeconds,
		record.FrameCount,
		record.Keyword,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to insert video")
		return err
	}

	videoID, err := res.LastInsertId()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get video ID")
		return err
	}

	for _, detection := range record.Detections {
		res, err := tx.StmtContext(ctx, r.preparedStatements[insertDetectionStmt]).ExecContext(ctx,
			videoID, detection.FrameTimestampMS, detection.Text, detection.Confidence)
		if err != nil {
			log.Error().Err(err).Msg("Failed to insert detection")
			return err
		}

		detectionID, err := res.LastInsertId()
		if err != nil {
			log.Error().Err(err).Msg("Failed to get detection ID")
			return err
		}

		_, err = tx.StmtContext(ctx, r.preparedStatements[insertDetectionFtsStmt]).ExecContext(ctx,
			detectionID, detection.Text)
		if err != nil {
			log.Error().Err(err).Msg("Failed to index detection")
			return err
		}
	}

	return tx.Commit()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
