// Package backup snapshots every key of a storage provider into a single
// archive file and restores from those archives.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

const (
	// BackupFilePrefix is the prefix for backup files
	BackupFilePrefix = constants.BackupFilePrefix
	// BackupFileSuffix is the suffix for backup files
	BackupFileSuffix = ".json"
	archiveVersion   = 1
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// archive is the on-disk backup format. Values are stored as raw bytes so
// blobs that are not valid JSON survive a round trip.
type archive struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Source    string            `json:"source"`
	Entries   map[string][]byte `json:"entries"`
}

// Manager handles backup operations
type Manager struct {
	store     storage.Provider
	backupDir string
	now       func() time.Time
}

// NewManager creates a backup manager for store writing into backupDir.
func NewManager(store storage.Provider, backupDir string) *Manager {
	return &Manager{
		store:     store,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// DefaultDir is the backups directory next to a file-backed data location.
func DefaultDir(configPath string) string {
	base := configPath
	if info, err := os.Stat(configPath); err != nil || !info.IsDir() {
		base = filepath.Dir(configPath)
	}
	return filepath.Join(base, constants.BackupDirName)
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func (m *Manager) ensureBackupDir() error {
	return os.MkdirAll(m.backupDir, 0700)
}

// CreateBackup writes a new archive of the store and rotates old ones.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// createBackup skips rotation when called from a restore so the pre-restore
// snapshot cannot push out the archive being restored.
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := m.ensureBackupDir(); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snapshot, err := m.snapshot()
	if err != nil {
		return "", err
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	if err := writeArchive(backupPath, snapshot); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
		}
	}

	logger.Info("Backup created", "path", backupPath, "keys", len(snapshot.Entries))
	return backupPath, nil
}

func (m *Manager) snapshot() (*archive, error) {
	keys, err := m.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list stored keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("nothing to back up: %s is empty", m.store.GetConfigPath())
	}

	a := &archive{
		Version:   archiveVersion,
		CreatedAt: m.now().UTC(),
		Source:    m.store.GetConfigPath(),
		Entries:   make(map[string][]byte, len(keys)),
	}
	for _, key := range keys {
		value, err := m.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		a.Entries[key] = value
	}
	return a, nil
}

// nextBackupPath picks a file name from the current time, adding seconds and
// then a counter when an earlier backup already took the name.
func (m *Manager) nextBackupPath() (string, error) {
	now := m.now()
	timestamp := now.Format("20060102-1504")
	backupPath := filepath.Join(m.backupDir, BackupFilePrefix+timestamp+BackupFileSuffix)
	if _, err := os.Stat(backupPath); err != nil {
		return backupPath, nil
	}

	timestamp = now.Format("20060102-150405")
	backupPath = filepath.Join(m.backupDir, BackupFilePrefix+timestamp+BackupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			return backupPath, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		backupPath = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", BackupFilePrefix, timestamp, counter, BackupFileSuffix))
	}
}

func writeArchive(path string, a *archive) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func readArchive(path string) (*archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("not a backup archive: %w", err)
	}
	if a.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported backup version %d", a.Version)
	}
	if a.Entries == nil {
		return nil, fmt.Errorf("backup archive has no entries")
	}
	return &a, nil
}

// parseTimestamp extracts the creation time from an archive file name.
// Names look like fitbuddy-YYYYMMDD-HHMM.json, optionally with seconds and a
// trailing -N counter.
func parseTimestamp(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, BackupFilePrefix) || !strings.HasSuffix(name, BackupFileSuffix) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, BackupFilePrefix), BackupFileSuffix)

	parts := strings.Split(ts, "-")
	if len(parts) > 2 {
		last := parts[len(parts)-1]
		if len(last) != 4 && len(last) != 6 && isDigits(last) {
			ts = strings.Join(parts[:len(parts)-1], "-")
		}
	}

	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ListBackups returns a list of all available backups, sorted by timestamp (newest first)
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		timestamp, ok := parseTimestamp(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	// Newest first; names break ties so counters order deterministically.
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the store's contents with the archive at
// backupPath. The current contents are archived first when there are any.
// Keys missing from the archive are deleted.
func (m *Manager) RestoreBackup(backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	a, err := m.verifyBackup(backupPath)
	if err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	current, err := m.store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list stored keys: %w", err)
	}
	if len(current) > 0 {
		preRestore, err := m.createBackup(true)
		if err != nil {
			return fmt.Errorf("failed to backup current data before restore: %w", err)
		}
		logger.Info("Created backup of current data", "path", filepath.Base(preRestore))
	}

	keys := make([]string, 0, len(a.Entries))
	for k := range a.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.store.Set(k, a.Entries[k]); err != nil {
			return fmt.Errorf("failed to restore %s: %w", k, err)
		}
	}
	for _, k := range current {
		if _, ok := a.Entries[k]; ok {
			continue
		}
		if err := m.store.Delete(k); err != nil {
			return fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}

	logger.Info("Backup restored", "path", backupPath, "keys", len(keys))
	return nil
}

// verifyBackup checks that path holds a readable archive.
func (m *Manager) verifyBackup(path string) (*archive, error) {
	return readArchive(path)
}
