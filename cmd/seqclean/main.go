// Package main provides the seqclean CLI tool for removing host reads
// from sequencing data.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
