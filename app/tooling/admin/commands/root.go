// Package commands contains the admin commands for the ledger service.
package commands

import (
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var url string

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration tooling for the memory ledger service",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the ledger service.")
}

// Execute runs the admin command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// client constructs the HTTP client used by every command.
func client() *resty.Client {
	return resty.New().
		SetBaseURL(url).
		SetTimeout(30 * time.Second)
}
