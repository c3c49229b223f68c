// Package identifier provides the label identifier format and the per-variant
// allocator that issues contiguous runs of serial numbers.
package identifier

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format controls how identifiers are rendered.
// Pattern: PREFIX-[PRODUCT][SIZE]-[PERIOD]-[SEQ] (e.g. RMT-REL-2501-001).
//
// Downstream scanning systems depend on this exact shape; change Prefix or
// SeqWidth only together with every consumer of the printed labels.
type Format struct {
	// Prefix added to all identifiers (e.g. "RMT")
	Prefix string

	// SeqWidth is the zero-padded width of the sequence part (default 3).
	// Numbers wider than SeqWidth render unpadded rather than truncated.
	SeqWidth int
}

// DefaultFormat returns the reference format: "RMT" prefix, width 3.
func DefaultFormat() Format {
	return Format{Prefix: "RMT", SeqWidth: 3}
}

// Identifier is one issued label identifier together with its components.
// It is always reconstructable from (product, size, period, seq); Text is
// the rendered compatibility surface that gets encoded and printed.
type Identifier struct {
	Product string `json:"product"`
	Size    string `json:"size"`
	Period  string `json:"period"`
	Seq     int64  `json:"seq"`
	Text    string `json:"text"`
}

// Render formats one identifier.
func (f Format) Render(product, size, period string, seq int64) string {
	width := f.SeqWidth
	if width <= 0 {
		width = 3
	}
	return fmt.Sprintf("%s-%s%s-%s-%0*d", f.Prefix, product, size, period, width, seq)
}

// Make builds the full Identifier value for one sequence number.
func (f Format) Make(product, size, period string, seq int64) Identifier {
	return Identifier{
		Product: product,
		Size:    size,
		Period:  period,
		Seq:     seq,
		Text:    f.Render(product, size, period, seq),
	}
}

// Parse decomposes a rendered identifier back into its components.
// The size is the final letter of the variant segment, the product code is
// the rest; "RMT-REL-2501-001" parses to ("RE", "L", "2501", 1).
func (f Format) Parse(text string) (Identifier, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 4 {
		return Identifier{}, fmt.Errorf("identifier %q: want PREFIX-CODE-PERIOD-SEQ", text)
	}
	if parts[0] != f.Prefix {
		return Identifier{}, fmt.Errorf("identifier %q: prefix %q, want %q", text, parts[0], f.Prefix)
	}
	variant := parts[1]
	if len(variant) < 2 {
		return Identifier{}, fmt.Errorf("identifier %q: variant segment %q too short", text, variant)
	}
	period := parts[2]
	if err := ValidatePeriod(period); err != nil {
		return Identifier{}, fmt.Errorf("identifier %q: %w", text, err)
	}
	seq, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || seq < 1 {
		return Identifier{}, fmt.Errorf("identifier %q: bad sequence part %q", text, parts[3])
	}
	return Identifier{
		Product: variant[:len(variant)-1],
		Size:    variant[len(variant)-1:],
		Period:  period,
		Seq:     seq,
		Text:    text,
	}, nil
}

// ValidatePeriod checks the period tag shape: exactly four digits (YYMM).
func ValidatePeriod(period string) error {
	if len(period) != 4 {
		return fmt.Errorf("period %q: want four digits (YYMM)", period)
	}
	for _, r := range period {
		if r < '0' || r > '9' {
			return fmt.Errorf("period %q: want four digits (YYMM)", period)
		}
	}
	return nil
}

// PeriodTag derives the period tag for a point in time, e.g. 2025-01 -> "2501".
func PeriodTag(t time.Time) string {
	return t.Format("0601")
}
