package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/seqclean/seqclean/internal/database"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch a prebuilt kraken2 database",
	Long: `Download and unpack a prebuilt kraken2 database archive. The
archive checksum is verified before unpacking, and interrupted
downloads resume where they left off.

The default source is a prebuilt human index suitable for host
depletion.

Examples:
  seqclean download --dest ./kraken-db
  seqclean download --dest ./kraken-db --url https://example.org/db.tar.gz --md5 ""`,
	RunE: runDownload,
}

var (
	downloadDest string
	downloadURL  string
	downloadMD5  string
)

func init() {
	downloadCmd.Flags().StringVar(&downloadDest, "dest", "./kraken-db", "destination directory")
	downloadCmd.Flags().StringVar(&downloadURL, "url", database.DefaultSourceURL, "archive URL")
	downloadCmd.Flags().StringVar(&downloadMD5, "md5", database.DefaultSourceMD5, "expected archive MD5 (empty skips verification)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// Already installed and valid? Nothing to do.
	if resolved, err := database.Resolve(downloadDest); err == nil {
		fmt.Printf("database already present at %s\n", resolved)
		return nil
	}

	d := database.NewDownloader(
		database.WithSourceURL(downloadURL),
		database.WithChecksum(downloadMD5),
	)

	var bar *progressbar.ProgressBar
	progress := func(p database.Progress) {
		if bar == nil {
			bar = progressbar.DefaultBytes(p.BytesTotal, "downloading")
		}
		bar.Set64(p.BytesDownloaded)
	}

	if err := d.Fetch(ctx, downloadDest, progress); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	resolved, err := database.Resolve(downloadDest)
	if err != nil {
		return err
	}
	fmt.Printf("\ndatabase ready at %s\n", resolved)
	return nil
}
