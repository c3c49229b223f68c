// Part of the bulkqr CLI - this file implements the 'bulkqr generate' command.
package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/render"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
	"github.com/pv2447407/bulkqr/internal/infrastructure/encoding/qr"
	"github.com/pv2447407/bulkqr/internal/infrastructure/pagewriter/pdf"
)

var (
	genCategory      string
	genProduct       string
	genSize          string
	genPeriod        string
	genQuantity      int
	genStart         int64
	genTemplate      string
	genECLevel       string
	genNoLogo        bool
	genLogoPath      string
	genLogoPercent   float64
	genPadding       int
	genSymbolPercent float64
	genConcurrency   int
	genOut           string
	genQuiet         bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a print batch and write the PDF",
	Long: `Allocate the next run of identifiers for a variant, render them as QR
symbols and write the label sheet PDF.

The issued numbers stay committed even if you abort after allocation, so
a re-run continues the sequence instead of duplicating labels.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genCategory, "category", "", "product category (required)")
	generateCmd.Flags().StringVar(&genProduct, "product", "", "product code (required)")
	generateCmd.Flags().StringVar(&genSize, "size", "", "size code (required)")
	generateCmd.Flags().StringVar(&genPeriod, "period", "", "period tag YYMM (default: current month)")
	generateCmd.Flags().IntVar(&genQuantity, "quantity", 0, "number of labels to print (required)")
	generateCmd.Flags().Int64Var(&genStart, "start", 0, "explicit first sequence number (default: continue)")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "sheet template name")
	generateCmd.Flags().StringVar(&genECLevel, "ec-level", "", "error correction level: L, M, Q, H (default M)")
	generateCmd.Flags().BoolVar(&genNoLogo, "no-logo", false, "skip logo compositing")
	generateCmd.Flags().StringVar(&genLogoPath, "logo", "", "logo image path (png or jpeg)")
	generateCmd.Flags().Float64Var(&genLogoPercent, "logo-percent", 0, "logo edge as percent of symbol (default 20)")
	generateCmd.Flags().IntVar(&genPadding, "padding", 2, "backdrop padding around the logo in pixels")
	generateCmd.Flags().Float64Var(&genSymbolPercent, "symbol-percent", 0, "symbol edge as percent of label cell (default 70)")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 0, "render workers per window (default 4)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (default labels-<batch-id>.pdf)")
	generateCmd.Flags().BoolVar(&genQuiet, "quiet", false, "suppress progress output")
	_ = generateCmd.MarkFlagRequired("category")
	_ = generateCmd.MarkFlagRequired("product")
	_ = generateCmd.MarkFlagRequired("size")
	_ = generateCmd.MarkFlagRequired("quantity")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stores, err := openStores(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	cfg := batch.Config{TemplatesDir: vi.GetString("templates-dir")}
	if genLogoPath != "" {
		logo, err := loadImage(genLogoPath)
		if err != nil {
			return fmt.Errorf("load logo: %w", err)
		}
		cfg.Logo = logo
	}

	service := batch.NewService(
		newAllocator(stores),
		render.NewPipeline(symbol.NewCompositor(&qr.Encoder{})),
		&pdf.Writer{},
		stores.Sessions,
		cliLogger(),
		cfg,
	)

	req := batch.Request{
		Category:      genCategory,
		Product:       genProduct,
		Size:          genSize,
		Period:        genPeriod,
		Quantity:      genQuantity,
		ExplicitStart: genStart,
		Template:      genTemplate,
		Composite: symbol.CompositeConfig{
			Level:         symbol.ECLevel(genECLevel),
			LogoEnabled:   !genNoLogo,
			LogoPercent:   genLogoPercent,
			PaddingPixels: genPadding,
		},
		SymbolPercent: genSymbolPercent,
		Concurrency:   genConcurrency,
	}
	if !genQuiet {
		req.OnProgress = func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\rrendering %d/%d", completed, total)
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	result, err := service.Run(ctx, req)
	if err != nil {
		return err
	}
	if len(result.Identifiers) == 0 {
		fmt.Println("nothing to print")
		return nil
	}

	out := genOut
	if out == "" {
		out = fmt.Sprintf("labels-%s.pdf", result.BatchID)
	}
	if err := os.WriteFile(out, result.Document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	first := result.Identifiers[0].Text
	last := result.Identifiers[len(result.Identifiers)-1].Text
	fmt.Printf("batch %s\n", result.BatchID)
	fmt.Printf("  identifiers: %s .. %s (%d)\n", first, last, len(result.Identifiers))
	fmt.Printf("  pages:       %d\n", result.PageCount)
	fmt.Printf("  file:        %s\n", out)
	return nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
