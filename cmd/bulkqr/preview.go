// Part of the bulkqr CLI - this file implements the 'bulkqr preview' command.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/render"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
	"github.com/pv2447407/bulkqr/internal/infrastructure/encoding/qr"
	"github.com/pv2447407/bulkqr/internal/infrastructure/pagewriter/pdf"
)

var (
	prevCategory      string
	prevProduct       string
	prevSize          string
	prevPeriod        string
	prevQuantity      int
	prevStart         int64
	prevTemplate      string
	prevSymbolPercent float64
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Dry-run a batch without printing",
	Long: `Resolve the sheet template and report margins, capacity and symbol size,
plus the identifier run the batch would issue. Nothing is allocated: the
numbers shown are taken by whichever batch commits first.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&prevCategory, "category", "", "product category (required)")
	previewCmd.Flags().StringVar(&prevProduct, "product", "", "product code (required)")
	previewCmd.Flags().StringVar(&prevSize, "size", "", "size code (required)")
	previewCmd.Flags().StringVar(&prevPeriod, "period", "", "period tag YYMM (default: current month)")
	previewCmd.Flags().IntVar(&prevQuantity, "quantity", 0, "label count for the run and page estimate")
	previewCmd.Flags().Int64Var(&prevStart, "start", 0, "explicit first sequence number (default: continue)")
	previewCmd.Flags().StringVar(&prevTemplate, "template", "", "sheet template name")
	previewCmd.Flags().Float64Var(&prevSymbolPercent, "symbol-percent", 0, "symbol edge as percent of label cell (default 70)")
	_ = previewCmd.MarkFlagRequired("category")
	_ = previewCmd.MarkFlagRequired("product")
	_ = previewCmd.MarkFlagRequired("size")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	service := batch.NewService(
		newAllocator(stores),
		render.NewPipeline(symbol.NewCompositor(&qr.Encoder{})),
		&pdf.Writer{},
		stores.Sessions,
		cliLogger(),
		batch.Config{TemplatesDir: vi.GetString("templates-dir")},
	)

	preview, err := service.PlanPreview(ctx, batch.Request{
		Category:      prevCategory,
		Product:       prevProduct,
		Size:          prevSize,
		Period:        prevPeriod,
		Quantity:      prevQuantity,
		ExplicitStart: prevStart,
		Template:      prevTemplate,
		SymbolPercent: prevSymbolPercent,
	})
	if err != nil {
		return err
	}

	if vi.GetBool("json") {
		return printJSON(preview)
	}

	cfg := preview.Layout
	fmt.Printf("page:        %.1f x %.1f mm\n", cfg.PageWidth, cfg.PageHeight)
	fmt.Printf("grid:        %d rows x %d cols (%d per page)\n", cfg.Rows, cfg.Cols, preview.ItemsPerPage)
	fmt.Printf("label:       %.2f x %.2f mm\n", cfg.LabelWidth, cfg.LabelHeight)
	fmt.Printf("margins:     %.2f left, %.2f top\n", preview.MarginLeft, preview.MarginTop)
	fmt.Printf("symbol:      %.2f mm (%d px)\n", preview.SymbolSizeMM, preview.SymbolSizePx)
	if n := len(preview.Identifiers); n > 0 {
		fmt.Printf("run:         %s .. %s (%d)\n", preview.Identifiers[0], preview.Identifiers[n-1], n)
		fmt.Printf("pages:       %d\n", preview.PageCount)
	}
	return nil
}
