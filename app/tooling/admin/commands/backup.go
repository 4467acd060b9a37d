package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Download the full chain plus public key to a file.",
	Run:   backupRun,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "ledger-backup.json", "File to write the backup to.")
}

func backupRun(cmd *cobra.Command, args []string) {
	resp, err := client().R().Get("/v1/backup")
	if err != nil {
		log.Fatal(err)
	}

	if resp.IsError() {
		log.Fatalf("backup failed: %s", resp.Status())
	}

	if err := os.WriteFile(backupOutput, resp.Body(), 0o644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("wrote %d bytes to %s\n", len(resp.Body()), backupOutput)
}
