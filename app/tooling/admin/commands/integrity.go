package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Print the chain integrity score.",
	Run:   integrityRun,
}

func init() {
	rootCmd.AddCommand(integrityCmd)
}

func integrityRun(cmd *cobra.Command, args []string) {
	var result struct {
		Integrity float64 `json:"integrity"`
	}

	resp, err := client().R().SetResult(&result).Get("/v1/integrity")
	if err != nil {
		log.Fatal(err)
	}

	if resp.IsError() {
		log.Fatalf("integrity failed: %s", resp.Status())
	}

	fmt.Println(result.Integrity)
}
