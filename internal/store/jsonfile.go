package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	jsonFieldProfiles       = "profiles"
	jsonFieldStats          = "stats"
	jsonTemporaryFilePrefix = ".followqueue-*"
	jsonFilePermissions     = 0o600
	jsonDirectoryPermission = 0o700

	errMessageReadStateFile   = "read state file"
	errMessageDecodeProfiles  = "decode stored profiles"
	errMessageEncodeState     = "encode state"
	errMessageWriteStateFile  = "write state file"
	errMessageRemoveStateFile = "remove state file"
)

type persistedState struct {
	Profiles []profiles.AnalyzedProfile `json:"profiles"`
	Stats    profiles.RelationshipStats `json:"stats"`
}

// JSONFileStore keeps state in a single JSON document shaped as
// {"profiles": [...], "stats": {...}}. A document missing either field, or one that
// is not valid JSON, is treated as absent.
type JSONFileStore struct {
	path  string
	mutex sync.Mutex
}

// NewJSONFileStore returns a store backed by the file at path.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (store *JSONFileStore) Load(ctx context.Context) (profiles.AppState, bool, error) {
	if err := ctx.Err(); err != nil {
		return profiles.AppState{}, false, err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	content, err := os.ReadFile(store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return profiles.AppState{}, false, nil
	}
	if err != nil {
		return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageReadStateFile, err)
	}
	if !gjson.ValidBytes(content) {
		return profiles.AppState{}, false, nil
	}

	profilesField := gjson.GetBytes(content, jsonFieldProfiles)
	statsField := gjson.GetBytes(content, jsonFieldStats)
	if !profilesField.IsArray() || !statsField.Exists() || statsField.Type == gjson.Null {
		return profiles.AppState{}, false, nil
	}

	var storedProfiles []profiles.AnalyzedProfile
	if err := json.Unmarshal([]byte(profilesField.Raw), &storedProfiles); err != nil {
		return profiles.AppState{}, false, fmt.Errorf("%s: %w", errMessageDecodeProfiles, err)
	}
	return profiles.NewAppState(storedProfiles), true, nil
}

// Save writes the state to a temporary file and renames it over the target.
func (store *JSONFileStore) Save(ctx context.Context, state profiles.AppState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	storedProfiles := state.Profiles
	if storedProfiles == nil {
		storedProfiles = []profiles.AnalyzedProfile{}
	}
	content, err := json.MarshalIndent(persistedState{
		Profiles: storedProfiles,
		Stats:    profiles.ComputeStats(storedProfiles),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageEncodeState, err)
	}
	if err := writeFileAtomically(store.path, content); err != nil {
		return fmt.Errorf("%s: %w", errMessageWriteStateFile, err)
	}
	return nil
}

func (store *JSONFileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if err := os.Remove(store.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", errMessageRemoveStateFile, err)
	}
	return nil
}

// Close is a no-op.
func (store *JSONFileStore) Close() error {
	return nil
}

func writeFileAtomically(path string, content []byte) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, jsonDirectoryPermission); err != nil {
		return err
	}
	temporaryFile, err := os.CreateTemp(directory, jsonTemporaryFilePrefix)
	if err != nil {
		return err
	}
	temporaryPath := temporaryFile.Name()
	defer os.Remove(temporaryPath)

	if _, err := temporaryFile.Write(content); err != nil {
		temporaryFile.Close()
		return err
	}
	if err := temporaryFile.Sync(); err != nil {
		temporaryFile.Close()
		return err
	}
	if err := temporaryFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(temporaryPath, jsonFilePermissions); err != nil {
		return err
	}
	return os.Rename(temporaryPath, path)
}
