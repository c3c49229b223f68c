// Part of the bulkqr CLI - this file implements the sequence inspection
// commands: 'sequences', 'gaps' and 'set-next'.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

var (
	seqCategory string
	seqProduct  string
	seqSize     string
	seqNext     int64
)

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "List variant counters",
	RunE:  runSequences,
}

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Show numbers skipped below a variant's counter",
	Long: `List the sequence numbers that were never issued for a variant, up to
its current counter. Gaps appear when a batch starts at an explicit
number ahead of the counter or after 'set-next'.`,
	RunE: runGaps,
}

var setNextCmd = &cobra.Command{
	Use:   "set-next",
	Short: "Move a variant counter forward",
	Long: `Move a counter so the next allocation starts at the given number.
The counter never moves backwards; numbers below it stay reserved.`,
	RunE: runSetNext,
}

func init() {
	for _, cmd := range []*cobra.Command{gapsCmd, setNextCmd} {
		cmd.Flags().StringVar(&seqCategory, "category", "", "product category (required)")
		cmd.Flags().StringVar(&seqProduct, "product", "", "product code (required)")
		cmd.Flags().StringVar(&seqSize, "size", "", "size code (required)")
		_ = cmd.MarkFlagRequired("category")
		_ = cmd.MarkFlagRequired("product")
		_ = cmd.MarkFlagRequired("size")
	}
	setNextCmd.Flags().Int64Var(&seqNext, "next", 0, "next sequence number to issue (required)")
	_ = setNextCmd.MarkFlagRequired("next")

	rootCmd.AddCommand(sequencesCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(setNextCmd)
}

func runSequences(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	records, err := stores.Sequences.List(ctx)
	if err != nil {
		return fmt.Errorf("list sequences: %w", err)
	}

	if vi.GetBool("json") {
		return printJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("no sequences recorded")
		return nil
	}
	fmt.Printf("%-24s %8s %-8s %s\n", "VARIANT", "LAST", "PERIOD", "ISSUED")
	for _, rec := range records {
		fmt.Printf("%-24s %8d %-8s %s\n", rec.Key.String(), rec.LastID, rec.PeriodTag, rec.Issued.String())
	}
	return nil
}

func runGaps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	report, err := newAllocator(stores).Gaps(ctx, sequence.NewKey(seqCategory, seqProduct, seqSize))
	if err != nil {
		return err
	}

	if vi.GetBool("json") {
		return printJSON(report)
	}

	fmt.Printf("variant: %s\n", report.Key.String())
	fmt.Printf("last id: %d\n", report.LastID)
	if len(report.Missing) == 0 {
		fmt.Println("gaps:    none")
		return nil
	}
	fmt.Printf("gaps:    %s (%d numbers)\n", formatRuns(report.Missing), len(report.Missing))
	return nil
}

func runSetNext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	rec, err := newAllocator(stores).SetNext(ctx, sequence.NewKey(seqCategory, seqProduct, seqSize), seqNext)
	if err != nil {
		return err
	}

	fmt.Printf("variant %s: next allocation starts at %d\n", rec.Key.String(), rec.LastID+1)
	return nil
}

// formatRuns compacts sorted numbers into "4-9,12" form.
func formatRuns(nums []int64) string {
	if len(nums) == 0 {
		return ""
	}
	out := ""
	start, prev := nums[0], nums[0]
	flush := func() {
		if out != "" {
			out += ","
		}
		if start == prev {
			out += fmt.Sprintf("%d", start)
		} else {
			out += fmt.Sprintf("%d-%d", start, prev)
		}
	}
	for _, n := range nums[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return out
}
