package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var restoreInput string

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Upload a backup file to replace the service's chain.",
	Run:   restoreRun,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVarP(&restoreInput, "input", "i", "ledger-backup.json", "Backup file to upload.")
}

func restoreRun(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(restoreInput)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := client().R().
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		Post("/v1/restore")
	if err != nil {
		log.Fatal(err)
	}

	if resp.IsError() {
		log.Fatalf("restore failed: %s: %s", resp.Status(), resp.Body())
	}

	fmt.Println(string(resp.Body()))
}
