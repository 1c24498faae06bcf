package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database/postgres"
	"github.com/shiftbase/faceclock/internal/facerec"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <descriptor.json>",
	Short: "Match a face descriptor against the enrolled pool",
	Long: `Run the recognition pipeline offline against a descriptor stored in a
JSON file (an array of 128 numbers). Useful for debugging why a kiosk
capture does or does not match.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", 0, "Match threshold override (0 uses the configured default)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading descriptor file: %w", err)
	}
	var descriptor []float64
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return fmt.Errorf("parsing descriptor file: %w", err)
	}
	if !facerec.ValidDescriptor(descriptor) {
		return fmt.Errorf("invalid descriptor: expected %d finite values, got %d values", facerec.DescriptorDim, len(descriptor))
	}

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
	enrolled, err := repo.ListEnrolled(context.Background(), "")
	if err != nil {
		return fmt.Errorf("listing enrolled employees: %w", err)
	}
	if len(enrolled) == 0 {
		return errors.New("no enrolled employees to match against")
	}

	profiles := make([]facerec.Profile, 0, len(enrolled))
	for i := range enrolled {
		profiles = append(profiles, enrolled[i].FaceProfile())
	}

	faceCfg := cfg.Recognition.FaceConfig()
	threshold := mustGetFloat64(cmd, "threshold")
	if threshold <= 0 {
		threshold = faceCfg.Threshold
	}

	matcher := facerec.NewMatcher(faceCfg)
	fmt.Printf("Matching against %d enrolled employees (threshold %.2f)\n", len(profiles), threshold)

	match := matcher.FindBestMatchThreshold(facerec.Descriptor(descriptor), profiles, threshold)
	if match == nil {
		fmt.Println("No match")
		return nil
	}
	fmt.Printf("Matched %s (%s)\n", match.Name, match.EmployeeID)
	fmt.Printf("  Distance:   %.4f\n", match.Distance)
	fmt.Printf("  Confidence: %.4f\n", match.Confidence)
	return nil
}
