package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/seqclean/seqclean/internal/database"
	"github.com/seqclean/seqclean/internal/kraken"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the classifier and database are usable",
	Long: `Check that the kraken2 binary is on PATH and that the
database directory holds a complete index. Run this before a long
pipeline to fail fast on a broken installation.`,
	RunE: runCheck,
}

var checkExecutable string

func init() {
	checkCmd.Flags().StringVar(&checkExecutable, "kraken2", kraken.DefaultExecutable, "path to the kraken2 binary")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	failed := false

	if path, err := exec.LookPath(checkExecutable); err != nil {
		fmt.Printf("classifier: MISSING (%s not found on PATH)\n", checkExecutable)
		failed = true
	} else {
		fmt.Printf("classifier: ok (%s)\n", path)
	}

	if dbDir == "" {
		fmt.Println("database:   not checked (no --db given)")
	} else if resolved, err := database.Resolve(dbDir); err != nil {
		fmt.Printf("database:   INVALID (%v)\n", err)
		failed = true
	} else {
		fmt.Printf("database:   ok (%s)\n", resolved)
	}

	if failed {
		return fmt.Errorf("environment check failed")
	}
	return nil
}
