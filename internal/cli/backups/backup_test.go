package backups

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

func setupBackupContext(t *testing.T) *cli.Context {
	dir := filepath.Join(t.TempDir(), "data")
	store := storage.NewFileStore(dir)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return &cli.Context{Store: store, DataDir: dir}
}

func TestBackupCreateListRestore(t *testing.T) {
	ctx := setupBackupContext(t)
	original := []byte(`{"2024-03-01":{"meals":[],"trainings":[]}}`)
	if err := ctx.Store.Set(constants.DailyDataKey, original); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	backups, err := ctx.BackupManager().ListBackups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("ListBackups = %v, %v; want one backup", backups, err)
	}

	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(backups[0].Path), Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	got, err := ctx.Store.Get(constants.DailyDataKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(original) {
		t.Errorf("restored blob = %s, want %s", got, original)
	}
}

func TestBackupRestoreCancelled(t *testing.T) {
	ctx := setupBackupContext(t)
	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	path, err := ctx.BackupManager().CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	old := confirmInput
	defer func() { confirmInput = old }()
	confirmInput = strings.NewReader("n\n")

	if err := (&BackupRestoreCmd{BackupFile: path}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	got, _ := ctx.Store.Get(constants.DailyDataKey)
	if string(got) != `{"b":2}` {
		t.Errorf("data changed after cancelled restore: %s", got)
	}
}

func TestBackupListEmpty(t *testing.T) {
	ctx := setupBackupContext(t)
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Errorf("list failed on empty backup dir: %v", err)
	}
}

func TestResolveBackupPathMissing(t *testing.T) {
	if _, err := resolveBackupPath("nope.json", t.TempDir()); err == nil {
		t.Error("expected error for missing backup")
	}
	if _, err := resolveBackupPath(filepath.Join(t.TempDir(), "nope.json"), t.TempDir()); err == nil {
		t.Error("expected error for missing absolute path")
	}
}
