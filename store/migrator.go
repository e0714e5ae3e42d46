package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Migration files live in migration/{driver}/NN__description.sql and are
// applied in lexicographic order. A fresh database gets LATEST.sql and is
// stamped with the highest patch number directly.
//
// The applied patch number is kept in system_setting under schemaVersionKey.

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	// For example, "01__create_table.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	schemaVersionKey = "schema_version"

	modeDemo = "demo"
)

// validateMigrationFileName checks if a migration file follows the expected naming convention.
func validateMigrationFileName(filename string) error {
	if !strings.Contains(filename, MigrateFileNameSplit) {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	parts := strings.Split(filename, MigrateFileNameSplit)
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// patchVersion extracts the patch number from a migration file path.
func patchVersion(filePath string) (int, error) {
	filename := filepath.Base(filePath)
	if err := validateMigrationFileName(filename); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.Split(filename, MigrateFileNameSplit)[0])
}

// Migrate migrates the database schema to the latest version.
// It also seeds the database with sample data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	current, err := s.GetSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get schema version")
	}
	target, err := s.GetTargetSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get target schema version")
	}
	if current > target {
		slog.Error("cannot downgrade schema version",
			slog.Int("databaseVersion", current),
			slog.Int("currentVersion", target),
		)
		return errors.Errorf("cannot downgrade schema version from %d to %d", current, target)
	}
	if current < target {
		if err := s.applyMigrations(ctx, current, target); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}

	if s.profile.Mode == modeDemo {
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

func (s *Store) migrationFiles() ([]string, error) {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*.sql", s.getMigrationBasePath()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	files := make([]string, 0, len(filePaths))
	for _, p := range filePaths {
		if strings.HasSuffix(p, LatestSchemaFileName) {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// applyMigrations applies all migration files in (current, target] in a single transaction.
func (s *Store) applyMigrations(ctx context.Context, current, target int) error {
	filePaths, err := s.migrationFiles()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration", slog.Int("currentSchemaVersion", current), slog.Int("targetSchemaVersion", target))

	applied := 0
	for _, filePath := range filePaths {
		version, err := patchVersion(filePath)
		if err != nil {
			return errors.Wrap(err, "failed to get schema version of migrate script")
		}
		if version <= current || version > target {
			continue
		}

		slog.Info("applying migration", slog.String("file", filePath), slog.Int("version", version))
		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))

	return s.driver.UpsertSystemSetting(ctx, schemaVersionKey, strconv.Itoa(target))
}

// preMigrate applies the latest schema to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	target, err := s.GetTargetSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get target schema version")
	}
	slog.Info("database initialized successfully", slog.Int("schemaVersion", target))
	return s.driver.UpsertSystemSetting(ctx, schemaVersionKey, strconv.Itoa(target))
}

// GetSchemaVersion returns the patch version recorded in the database, 0 if none.
func (s *Store) GetSchemaVersion(ctx context.Context) (int, error) {
	raw, err := s.driver.GetSystemSetting(ctx, schemaVersionKey)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid schema version %q", raw)
	}
	return version, nil
}

// GetTargetSchemaVersion returns the highest patch version shipped with the binary.
func (s *Store) GetTargetSchemaVersion() (int, error) {
	filePaths, err := s.migrationFiles()
	if err != nil {
		return 0, err
	}
	if len(filePaths) == 0 {
		return 0, nil
	}
	return patchVersion(filePaths[len(filePaths)-1])
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) getSeedBasePath() string {
	return fmt.Sprintf("seed/%s/", s.profile.Driver)
}

// seed executes all seed files in order. Seeds use INSERT OR IGNORE so
// repeated demo starts are harmless.
func (s *Store) seed(ctx context.Context) error {
	filenames, err := fs.Glob(seedFS, fmt.Sprintf("%s*.sql", s.getSeedBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	for _, filename := range filenames {
		bytes, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "seed error: %s", filename)
		}
	}
	return tx.Commit()
}

// execute runs each statement of a multi-statement SQL script.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside single-quoted strings.
// Lines starting with "--" are dropped.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	inSingleQuote := false

	for _, line := range strings.Split(script, "\n") {
		if !inSingleQuote && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, r := range line {
			switch {
			case r == '\'':
				inSingleQuote = !inSingleQuote
				current.WriteRune(r)
			case r == ';' && !inSingleQuote:
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
			default:
				current.WriteRune(r)
			}
		}
		current.WriteByte('\n')
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
