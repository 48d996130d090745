package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision the trip and metrics tables",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("  Storage ready: %s\n", storeLabel())
	return nil
}
