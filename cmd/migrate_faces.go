package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/database/postgres"
	"github.com/spf13/cobra"
)

var migrateFacesCmd = &cobra.Command{
	Use:   "migrate-faces",
	Short: "Backfill legacy single-descriptor face profiles",
	Long: `Rewrite employees still stored with the legacy single face descriptor
column into the descriptor list representation.

The API already migrates profiles lazily on write; this command backfills the
rest in one pass so the legacy column can eventually be dropped.`,
	RunE: runMigrateFaces,
}

func init() {
	rootCmd.AddCommand(migrateFacesCmd)

	migrateFacesCmd.Flags().Bool("dry-run", false, "Report what would be migrated without writing")
}

func runMigrateFaces(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	repo := postgres.NewEmployeeRepository(pool)
	ctx := context.Background()

	ids, err := repo.ListLegacyProfileIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing legacy profiles: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("No legacy face profiles found, nothing to do")
		return nil
	}
	fmt.Printf("Found %d legacy face profiles\n", len(ids))

	if dryRun {
		for _, id := range ids {
			fmt.Printf("  would migrate %s\n", id)
		}
		return nil
	}

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Migrating profiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var migrated, failed int
	for _, id := range ids {
		if err := migrateLegacyProfile(ctx, repo, id); err != nil {
			fmt.Printf("\nWarning: failed to migrate %s: %v\n", id, err)
			failed++
		} else {
			migrated++
		}
		_ = bar.Add(1)
	}
	fmt.Printf("\nMigrated %d profiles, %d failed\n", migrated, failed)
	if failed > 0 {
		return fmt.Errorf("%d profiles failed to migrate", failed)
	}
	return nil
}

// migrateLegacyProfile rewrites one employee into the descriptor list
// representation. The read path already presents the legacy column as a
// one-element list, so the rewrite is a plain read-back-and-store.
func migrateLegacyProfile(ctx context.Context, repo *postgres.EmployeeRepository, id string) error {
	emp, err := repo.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if emp == nil {
		return fmt.Errorf("employee disappeared during migration")
	}
	profile := emp.FaceProfile()
	return repo.ReplaceFaceProfile(ctx, id, database.ProfileUpdateFrom(profile, nil))
}
