package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	sqliteDriverName         = "sqlite"
	sqliteDirectoryPerm      = 0o700
	sqliteSnapshotRowID      = 1
	errMessageMigrate        = "migrate schema"
	errMessageBeginTx        = "begin transaction"
	errMessageCommitTx       = "commit transaction"
	errMessageQueryProfiles  = "query profiles"
	errMessageScanProfile    = "scan profile"
	errMessageInsertProfile  = "insert profile"
	errMessageQuerySnapshot  = "query snapshot"
	errMessageDeleteSnapshot = "delete snapshot"
	errMessageSaveSnapshot   = "save snapshot"
	errMessageDeleteProfiles = "delete profiles"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	username TEXT NOT NULL,
	profile_url TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_id ON profiles(id);
CREATE INDEX IF NOT EXISTS idx_profiles_type_status ON profiles(relationship_type, status);
`

// SQLiteStore keeps state in a SQLite database. Profiles are stored one row each in
// state order; the snapshots row marks that an analysis has been saved.
type SQLiteStore struct {
	database *sql.DB
}

// NewSQLiteStore opens or creates the database at databasePath.
func NewSQLiteStore(databasePath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(databasePath), sqliteDirectoryPerm); err != nil {
		return nil, err
	}

	database, err := sql.Open(sqliteDriverName, databasePath)
	if err != nil {
		return nil, err
	}
	database.SetMaxOpenConns(1)

	store := &SQLiteStore{database: database}
	if err := store.migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("%s: %w", errMessageMigrate, err)
	}
	return store, nil
}

// Close closes the database connection.
func (store *SQLiteStore) Close() error {
	return store.database.Close()
}

func (store *SQLiteStore) migrate() error {
	_, err := store.database.Exec(sqliteSchema)
	return err
}

func (store *SQLiteStore) Load(ctx context.Context) (profiles.AppState, bool, error) {
	var snapshotID int
	err := store.database.QueryRowContext(ctx, `SELECT id FROM snapshots WHERE id = ?`, sqliteSnapshotRowID).Scan(&snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return profiles.AppState{}, false, nil
	}
	if err != nil {
		return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageQuerySnapshot, err)
	}

	rows, err := store.database.QueryContext(ctx, `
		SELECT id, username, profile_url, relationship_type, status
		FROM profiles
		ORDER BY position
	`)
	if err != nil {
		return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageQueryProfiles, err)
	}
	defer rows.Close()

	storedProfiles := []profiles.AnalyzedProfile{}
	for rows.Next() {
		var profile profiles.AnalyzedProfile
		var relationshipType, status string
		if err := rows.Scan(&profile.ID, &profile.Username, &profile.ProfileURL, &relationshipType, &status); err != nil {
			return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageScanProfile, err)
		}
		profile.Type = profiles.RelationshipType(relationshipType)
		profile.Status = profiles.Status(status)
		storedProfiles = append(storedProfiles, profile)
	}
	if err := rows.Err(); err != nil {
		return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageQueryProfiles, err)
	}
	return profiles.NewAppState(storedProfiles), true, nil
}

// Save replaces the stored profiles in a single transaction.
func (store *SQLiteStore) Save(ctx context.Context, state profiles.AppState) error {
	transaction, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageBeginTx, err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("%s: %w", errMessageDeleteProfiles, err)
	}
	statement, err := transaction.PrepareContext(ctx, `
		INSERT INTO profiles (position, id, username, profile_url, relationship_type, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageInsertProfile, err)
	}
	defer statement.Close()

	for position, profile := range state.Profiles {
		if _, err := statement.ExecContext(ctx, position, profile.ID, profile.Username, profile.ProfileURL, string(profile.Type), string(profile.Status)); err != nil {
			return fmt.Errorf("%s %s: %w", errMessageInsertProfile, profile.ID, err)
		}
	}

	if _, err := transaction.ExecContext(ctx, `
		INSERT INTO snapshots (id, saved_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at
	`, sqliteSnapshotRowID, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", errMessageSaveSnapshot, err)
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("%s: %w", errMessageCommitTx, err)
	}
	return nil
}

func (store *SQLiteStore) Clear(ctx context.Context) error {
	transaction, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageBeginTx, err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("%s: %w", errMessageDeleteProfiles, err)
	}
	if _, err := transaction.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("%s: %w", errMessageDeleteSnapshot, err)
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("%s: %w", errMessageCommitTx, err)
	}
	return nil
}
