package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceclock",
	Short: "Face recognition timeclock backend",
	Long: `Faceclock is the backend for a face-verified employee timeclock.
It matches 128-dimensional face descriptors produced by the kiosk frontend
against enrolled employee profiles and records clock-in/clock-out attendance
entries per store.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
