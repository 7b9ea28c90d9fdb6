package system

import (
	"fmt"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Delete all existing data after initialization."`
	Source string `help:"Data location to copy existing data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Source != "" && c.Source == ctx.Store.GetConfigPath() {
		return fmt.Errorf("source and destination are the same: %s", c.Source)
	}

	// Initialize destination store
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized fitbuddy storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Force {
		n, err := clearStore(ctx.Store)
		if err != nil {
			return fmt.Errorf("failed to reset existing data: %w", err)
		}
		if n > 0 {
			fmt.Printf("Deleted %d existing entries\n", n)
		}
	}

	// If source is provided, migrate data
	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		n, err := c.migrateData(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Migration completed successfully! (%d entries)\n", n)
	}

	return nil
}

func clearStore(store storage.Provider) (int, error) {
	keys, err := store.Keys()
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := store.Delete(key); err != nil {
			return 0, fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return len(keys), nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) (int, error) {
	source, err := cli.OpenStore(c.Source)
	if err != nil {
		return 0, err
	}
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source: %w", err)
	}
	defer source.Close()

	return copyEntries(source, ctx.Store)
}

// copyEntries copies every key of src into dst, overwriting existing values.
func copyEntries(src, dst storage.Provider) (int, error) {
	keys, err := src.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list source entries: %w", err)
	}
	for _, key := range keys {
		value, err := src.Get(key)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s from source: %w", key, err)
		}
		if err := dst.Set(key, value); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", key, err)
		}
		fmt.Printf("  Migrated %s\n", key)
	}
	return len(keys), nil
}
