package main

import (
	"context"
	"fmt"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/bootstrap"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

func runImport(ctx context.Context, cfgPath, path string) error {
	cfg := setup(cfgPath)
	defer logger.Sync()

	if path == "" {
		path = cfg.Roster.Path
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	rep, err := bootstrap.NewLoader(store).LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Printf("rows=%d groups=%d inserted=%d skipped=%d\n", rep.Rows, rep.GroupsInserted, rep.Inserted, rep.Skipped)
	return nil
}
