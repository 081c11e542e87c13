package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trellis",
	Short: "Trellis plant-care tracker",
	Long:  "Trellis is a plant-care tracker for households and shared spaces: plants with care schedules and reminders, gardens shared between users with role-based permissions, and optional weather and plant-identification integrations.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/trellis.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
