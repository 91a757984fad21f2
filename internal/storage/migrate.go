package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// TargetVersion is the schema version this build upgrades stores to.
const TargetVersion uint = 2

// Step is one versioned, additive schema change.
type Step struct {
	Version uint
	Name    string
	SQL     string
}

// Migrator applies the steps between a store's on-disk version and TargetVersion.
type Migrator struct {
	steps  []Step
	target uint
	logger *slog.Logger
}

// NewMigrator loads the embedded migration steps.
func NewMigrator(logger *slog.Logger) (*Migrator, error) {
	steps, err := LoadSteps(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 || steps[len(steps)-1].Version != TargetVersion {
		return nil, fmt.Errorf("migrations end at version %d, want %d", lastVersion(steps), TargetVersion)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{steps: steps, target: TargetVersion, logger: logger}, nil
}

// LoadSteps reads every up migration under dir in version order.
func LoadSteps(fsys fs.FS, dir string) ([]Step, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	defer src.Close()

	var steps []Step
	version, err := src.First()
	for err == nil {
		step, readErr := readStep(src, version)
		if readErr != nil {
			return nil, readErr
		}
		steps = append(steps, step)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return steps, nil
}

type upReader interface {
	ReadUp(version uint) (io.ReadCloser, string, error)
}

func readStep(src upReader, version uint) (Step, error) {
	r, name, err := src.ReadUp(version)
	if err != nil {
		return Step{}, fmt.Errorf("read migration %d: %w", version, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return Step{}, fmt.Errorf("read migration %d: %w", version, err)
	}
	return Step{Version: version, Name: name, SQL: string(body)}, nil
}

// Steps returns the loaded steps in version order.
func (m *Migrator) Steps() []Step {
	return append([]Step(nil), m.steps...)
}

// Migrate brings db from its current version to the target. All pending
// steps and the version bump commit together or not at all. It returns the
// version found on disk and the version after the call.
func (m *Migrator) Migrate(ctx context.Context, db *sql.DB) (from, to uint, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upgrade: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	from, err = userVersion(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	if from > m.target {
		return from, from, fmt.Errorf("%w: on-disk version %d, supported %d", ErrSchemaTooNew, from, m.target)
	}
	if from == m.target {
		if err = tx.Commit(); err != nil {
			return from, from, fmt.Errorf("commit upgrade: %w", err)
		}
		return from, from, nil
	}

	for _, step := range m.steps {
		if step.Version <= from || step.Version > m.target {
			continue
		}
		if err = ApplyStep(ctx, tx, step); err != nil {
			return from, from, err
		}
		m.logger.InfoContext(ctx, "Applied schema step",
			"version", step.Version,
			"name", step.Name)
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.target)); err != nil {
		return from, from, fmt.Errorf("set user_version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return from, from, fmt.Errorf("commit upgrade: %w", err)
	}

	m.logger.InfoContext(ctx, "Schema upgraded", "from", from, "to", m.target)
	return from, m.target, nil
}

// ApplyStep executes one step inside tx. Steps only create what does not
// exist yet, so applying one twice leaves the schema unchanged.
func ApplyStep(ctx context.Context, tx *sql.Tx, step Step) error {
	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return fmt.Errorf("apply migration %d_%s: %w", step.Version, step.Name, err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userVersion(ctx context.Context, q queryRower) (uint, error) {
	var v int64
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("read user_version: negative version %d", v)
	}
	return uint(v), nil
}

func lastVersion(steps []Step) uint {
	if len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].Version
}
