// Part of the bulkqr CLI - this file implements the 'bulkqr sessions' command.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List print history, newest first",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum entries to show (0 for all)")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	sessions, err := stores.Sessions.List(ctx, sessionsLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if vi.GetBool("json") {
		return printJSON(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("no print sessions recorded")
		return nil
	}
	fmt.Printf("%-36s %-24s %6s %5s %-20s\n", "BATCH", "VARIANT", "COUNT", "PAGES", "COMPLETED")
	for _, s := range sessions {
		fmt.Printf("%-36s %-24s %6d %5d %-20s\n",
			s.ID, s.Variant.String(), s.Count(), s.PageCount,
			s.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
