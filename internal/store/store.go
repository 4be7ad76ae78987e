package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store provides a PostgreSQL implementation of schemas.Store.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Ensures Store correctly implements the schemas.Store interface at compile time.
var _ schemas.Store = (*Store)(nil)

// schema is applied statement by statement by EnsureSchema.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
        id UUID PRIMARY KEY,
        command TEXT NOT NULL,
        input_path TEXT NOT NULL,
        blocks INTEGER NOT NULL,
        failures INTEGER NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS graph_scores (
        run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
        rank INTEGER NOT NULL,
        gid INTEGER NOT NULL,
        score DOUBLE PRECISION NOT NULL,
        fairness_nodes INTEGER NOT NULL,
        amr TEXT NOT NULL,
        failure TEXT,
        PRIMARY KEY (run_id, gid)
    )`,
	`CREATE TABLE IF NOT EXISTS sentences (
        run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
        block INTEGER NOT NULL,
        position INTEGER NOT NULL,
        amr TEXT NOT NULL,
        PRIMARY KEY (run_id, block, position)
    )`,
}

const sqlInsertRun = `
        INSERT INTO runs (id, command, input_path, blocks, failures, created_at)
        VALUES ($1, $2, $3, $4, $5, $6);
    `

const sqlInsertSentence = `
        INSERT INTO sentences (run_id, block, position, amr)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (run_id, block, position) DO UPDATE SET
            amr = EXCLUDED.amr;
    `

var scoreColumns = []string{"run_id", "rank", "gid", "score", "fairness_nodes", "amr", "failure"}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// SaveRun records a command run.
func (s *Store) SaveRun(ctx context.Context, run schemas.Run) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, sqlInsertRun,
		run.ID, run.Command, run.InputPath, run.Blocks, run.Failures, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	s.log.Debug("Run recorded", zap.String("run_id", run.ID), zap.String("command", run.Command))
	return nil
}

// SaveScores bulk-loads the ranked results of a run. The slice order is
// stored as the rank, starting at 1.
func (s *Store) SaveScores(ctx context.Context, runID string, scores []schemas.ScoredGraph) error {
	if len(scores) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		rows := make([][]any, len(scores))
		for i, g := range scores {
			var failure *string
			if g.Failure != nil {
				reason := g.Failure.Reason
				failure = &reason
			}
			rows[i] = []any{runID, i + 1, g.ID, g.Score, g.FairnessNodes, g.AMR, failure}
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"graph_scores"}, scoreColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy graph scores: %w", err)
		}
		if int(n) != len(scores) {
			return fmt.Errorf("mismatch in copied graph scores count: expected %d, got %d", len(scores), n)
		}
		return nil
	})
}

// SaveSentences stores the kept sentence graphs of a run in one batch.
func (s *Store) SaveSentences(ctx context.Context, runID string, sentences []schemas.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, sn := range sentences {
			batch.Queue(sqlInsertSentence, runID, sn.Block, sn.Position, sn.AMR)
		}

		br := tx.SendBatch(ctx, batch)
		if br == nil {
			return fmt.Errorf("failed to send batch: batch results is nil")
		}
		defer func() {
			_ = br.Close()
		}()

		for i := range sentences {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to insert sentence %d of block %d: %w",
					sentences[i].Position, sentences[i].Block, err)
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction that is committed when fn succeeds and rolled
// back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
