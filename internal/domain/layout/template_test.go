package layout

import (
	"os"
	"path/filepath"
	"testing"
)

const averyYAML = `
name: avery-3x8
page:
  width: 210
  height: 297
grid:
  rows: 8
  cols: 3
label:
  width: 63.5
  height: 33.9
gap:
  horizontal: 2.5
  vertical: 0
margins:
  auto: false
  left: 7.2
  top: 12.9
`

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate([]byte(averyYAML))
	if err != nil {
		t.Fatalf("ParseTemplate() error: %v", err)
	}
	cfg := tpl.Config()
	if cfg.Rows != 8 || cfg.Cols != 3 {
		t.Errorf("grid = %dx%d, want 8x3", cfg.Rows, cfg.Cols)
	}
	if cfg.AutoMargins {
		t.Error("AutoMargins = true, want explicit margins")
	}
	if cfg.MarginLeft != 7.2 || cfg.MarginTop != 12.9 {
		t.Errorf("margins = %v/%v, want 7.2/12.9", cfg.MarginLeft, cfg.MarginTop)
	}
}

func TestParseTemplateDefaultsToAutoMargins(t *testing.T) {
	tpl, err := ParseTemplate([]byte("name: plain\npage: {width: 100, height: 100}\ngrid: {rows: 2, cols: 2}\nlabel: {width: 20, height: 20}\n"))
	if err != nil {
		t.Fatalf("ParseTemplate() error: %v", err)
	}
	if !tpl.Config().AutoMargins {
		t.Error("AutoMargins = false, want auto-centering when margins omitted")
	}
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "{{"},
		{"missing name", "page: {width: 100, height: 100}\ngrid: {rows: 1, cols: 1}\nlabel: {width: 10, height: 10}\n"},
		{"grid off page", "name: bad\npage: {width: 100, height: 100}\ngrid: {rows: 1, cols: 3}\nlabel: {width: 40, height: 10}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTemplate([]byte(tt.yaml)); err == nil {
				t.Error("ParseTemplate() succeeded, want error")
			}
		})
	}
}

func TestResolveTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avery-3x8.yaml")
	if err := os.WriteFile(path, []byte(averyYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("builtin default", func(t *testing.T) {
		tpl, err := ResolveTemplate(dir, "")
		if err != nil {
			t.Fatalf("ResolveTemplate() error: %v", err)
		}
		if tpl.Name != DefaultTemplateName {
			t.Errorf("name = %q, want %q", tpl.Name, DefaultTemplateName)
		}
		if cfg := tpl.Config(); cfg != DefaultConfig() {
			t.Errorf("config = %+v, want reference sheet", cfg)
		}
	})

	t.Run("from directory", func(t *testing.T) {
		tpl, err := ResolveTemplate(dir, "avery-3x8")
		if err != nil {
			t.Fatalf("ResolveTemplate() error: %v", err)
		}
		if tpl.Name != "avery-3x8" {
			t.Errorf("name = %q, want avery-3x8", tpl.Name)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := ResolveTemplate(dir, "no-such-sheet"); err == nil {
			t.Error("ResolveTemplate() succeeded, want error")
		}
	})

	t.Run("no directory", func(t *testing.T) {
		if _, err := ResolveTemplate("", "avery-3x8"); err == nil {
			t.Error("ResolveTemplate() succeeded, want error")
		}
	})
}
