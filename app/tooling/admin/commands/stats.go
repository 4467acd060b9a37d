package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type stats struct {
	TotalBlocks       int            `json:"total_blocks"`
	PendingEntries    int            `json:"pending_entries"`
	ChainIntegrity    float64        `json:"chain_integrity"`
	AverageConfidence float64        `json:"average_confidence"`
	TypeDistribution  map[string]int `json:"type_distribution"`
	EarliestTimeStamp float64        `json:"earliest_timestamp"`
	LatestTimeStamp   float64        `json:"latest_timestamp"`
	SpanDays          float64        `json:"span_days"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ledger statistics.",
	Run:   statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) {
	var s stats
	resp, err := client().R().SetResult(&s).Get("/v1/statistics")
	if err != nil {
		log.Fatal(err)
	}

	if resp.IsError() {
		log.Fatalf("statistics failed: %s", resp.Status())
	}

	fmt.Println("blocks:            ", s.TotalBlocks)
	fmt.Println("pending:           ", s.PendingEntries)
	fmt.Println("integrity:         ", s.ChainIntegrity)
	fmt.Println("avg confidence:    ", s.AverageConfidence)
	fmt.Println("span days:         ", s.SpanDays)
	for memType, count := range s.TypeDistribution {
		fmt.Printf("type %-14s %d\n", memType+":", count)
	}
}
