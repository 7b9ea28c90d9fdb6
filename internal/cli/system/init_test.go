package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/storage"
	"github.com/julianstephens/fitbuddy/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)

	ctx := &cli.Context{
		Store:   store,
		DataDir: tempDir,
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, dbPath, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	err := cmd.Run(ctx)

	if err != nil {
		t.Errorf("init command failed: %v", err)
	}

	// Verify database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}

	// Run init first time
	err := cmd.Run(ctx)
	if err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Run init second time - should be idempotent and keep data
	err = cmd.Run(ctx)
	if err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
	if _, err := ctx.Store.Get(constants.DailyDataKey); err != nil {
		t.Errorf("data lost after second init: %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	for _, key := range []string{constants.DailyDataKey, constants.LatestLogDateKey} {
		if err := ctx.Store.Set(key, []byte(`"x"`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}

	keys, err := ctx.Store.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty store after --force, got keys %v", keys)
	}
}

func TestInitCmd_MigratesFromSource(t *testing.T) {
	sourceDir := filepath.Join(t.TempDir(), "data")
	source := storage.NewFileStore(sourceDir)
	if err := source.Init(); err != nil {
		t.Fatalf("source Init failed: %v", err)
	}
	blob := []byte(`{"2024-03-01":{"meals":[],"trainings":[],"targets":{"calories":2200,"protein":150,"carbs":250,"fat":70}}}`)
	if err := source.Set(constants.DailyDataKey, blob); err != nil {
		t.Fatalf("source Set failed: %v", err)
	}

	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{Source: sourceDir}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	got, err := ctx.Store.Get(constants.DailyDataKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("migrated blob = %s, want %s", got, blob)
	}
}

func TestInitCmd_RejectsSameSource(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	err := (&InitCmd{Source: dbPath}).Run(ctx)
	if err == nil {
		t.Error("expected error when source equals destination")
	}
}
