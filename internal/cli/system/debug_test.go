package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

func setupDebugStore(t *testing.T) *cli.Context {
	dir := filepath.Join(t.TempDir(), "data")
	store := storage.NewFileStore(dir)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return &cli.Context{
		Store:    store,
		DataDir:  dir,
		Timezone: "UTC",
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestDebugCommands(t *testing.T) {
	ctx := setupDebugStore(t)
	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Errorf("db-path failed: %v", err)
	}
	if err := (&DebugKeysCmd{}).Run(ctx); err != nil {
		t.Errorf("keys failed: %v", err)
	}
	if err := (&DebugDumpKeyCmd{Key: constants.DailyDataKey}).Run(ctx); err != nil {
		t.Errorf("dump-key failed: %v", err)
	}
	if err := (&DebugDumpDayCmd{Date: "yesterday"}).Run(ctx); err != nil {
		t.Errorf("dump-day failed: %v", err)
	}
}

func TestDebugDumpKeyNotFound(t *testing.T) {
	ctx := setupDebugStore(t)
	if err := (&DebugDumpKeyCmd{Key: "missing"}).Run(ctx); err == nil {
		t.Error("expected error for a missing key")
	}
}

func TestDebugDumpDayInvalidDate(t *testing.T) {
	ctx := setupDebugStore(t)
	if err := (&DebugDumpDayCmd{Date: "03/01/2024"}).Run(ctx); err == nil {
		t.Error("expected error for an invalid date")
	}
}
