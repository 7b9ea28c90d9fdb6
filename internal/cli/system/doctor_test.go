package system

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/storage/sqlite"
	gokeyring "github.com/zalando/go-keyring"
)

func setupTestDoctorDB(t *testing.T) (*cli.Context, func()) {
	gokeyring.MockInit()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	ctx := &cli.Context{
		Store:    store,
		DataDir:  tempDir,
		Timezone: "UTC",
	}

	cleanup := func() {
		store.Close()
	}

	return ctx, cleanup
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	cmd := &DoctorCmd{}
	err := cmd.Run(ctx)

	// Should pass all checks (backups, API key and audio are warnings)
	if err != nil {
		t.Errorf("doctor command failed on healthy database: %v", err)
	}
}

func TestDoctorCmd_WithLedgerData(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	blob := `{"2024-03-01":{"meals":[],"trainings":[],"targets":{"calories":2200,"protein":150,"carbs":250,"fat":70}}}`
	if err := ctx.Store.Set(constants.DailyDataKey, []byte(blob)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor command failed with valid ledger: %v", err)
	}
}

func TestDoctorCmd_CorruptLedger(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	if err := ctx.Store.Set(constants.DailyDataKey, []byte("{not json")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor command should fail on corrupt ledger")
	}
}

func TestDoctorCmd_InvalidDateKey(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	if err := ctx.Store.Set(constants.DailyDataKey, []byte(`{"03/01/2024":{"meals":[],"trainings":[]}}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor command should fail on invalid date keys")
	}
}

func TestDoctorCmd_BrokenSchema(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	db := ctx.Store.(*sqlite.Store).GetDB()
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		t.Fatalf("failed to delete schema version: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (999)"); err != nil {
		t.Fatalf("failed to set schema version: %v", err)
	}

	if err := checkSchemaVersion(ctx); err == nil {
		t.Error("expected schema check to fail for future version")
	}
}

func TestDoctorCmd_InvalidTimezone(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	ctx.Timezone = "Not/AZone"
	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor command should fail on invalid timezone")
	}
}

func TestDoctorCmd_UnreachableStore(t *testing.T) {
	dir := t.TempDir()
	ctx := &cli.Context{
		// Never initialized, so Load reports it.
		Store:    sqlite.NewStore(filepath.Join(dir, "missing.db")),
		DataDir:  dir,
		Timezone: "UTC",
	}
	defer ctx.Store.Close()

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("doctor command should fail when storage is unreachable")
	}
}

func TestCheckLock(t *testing.T) {
	ctx, cleanup := setupTestDoctorDB(t)
	defer cleanup()

	if err := checkLock(ctx); err != nil {
		t.Errorf("no lockfile should pass: %v", err)
	}

	lock, err := ctx.Lock()
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer lock.Release()

	if err := checkLock(ctx); err == nil {
		t.Error("expected warning for a live lock owner")
	}
}

func TestCheckAudioCommands(t *testing.T) {
	ctx := &cli.Context{}
	ctx.AI.MicCommand = "definitely-not-a-real-binary-xyz -q"
	if err := checkAudioCommands(ctx); err == nil {
		t.Error("expected missing audio command to be reported")
	}

	ctx.AI.MicCommand = ""
	ctx.AI.SpeakerCommand = ""
	if err := checkAudioCommands(ctx); err != nil {
		t.Errorf("empty commands should pass: %v", err)
	}
}
