package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Template is the YAML-facing sheet description users keep in a templates
// directory, one file per vendor geometry.
type Template struct {
	Name  string        `yaml:"name" json:"name"`
	Page  dimensionSpec `yaml:"page" json:"page"`
	Grid  gridSpec      `yaml:"grid" json:"grid"`
	Label dimensionSpec `yaml:"label" json:"label"`
	Gap   gapSpec       `yaml:"gap" json:"gap"`

	// Margins defaults to auto-centering when omitted.
	Margins *marginSpec `yaml:"margins" json:"margins,omitempty"`
}

type dimensionSpec struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

type gridSpec struct {
	Rows int `yaml:"rows" json:"rows"`
	Cols int `yaml:"cols" json:"cols"`
}

type gapSpec struct {
	Horizontal float64 `yaml:"horizontal" json:"horizontal"`
	Vertical   float64 `yaml:"vertical" json:"vertical"`
}

type marginSpec struct {
	Auto bool    `yaml:"auto" json:"auto"`
	Left float64 `yaml:"left" json:"left"`
	Top  float64 `yaml:"top" json:"top"`
}

// DefaultTemplateName resolves to the built-in reference sheet.
const DefaultTemplateName = "default"

// DefaultTemplate returns the built-in reference sheet geometry.
func DefaultTemplate() Template {
	return Template{
		Name:  DefaultTemplateName,
		Page:  dimensionSpec{Width: 210, Height: 297},
		Grid:  gridSpec{Rows: 9, Cols: 7},
		Label: dimensionSpec{Width: 25.4, Height: 25.4},
	}
}

// Config converts the template into an engine configuration.
func (t Template) Config() Config {
	cfg := Config{
		PageWidth:     t.Page.Width,
		PageHeight:    t.Page.Height,
		Rows:          t.Grid.Rows,
		Cols:          t.Grid.Cols,
		LabelWidth:    t.Label.Width,
		LabelHeight:   t.Label.Height,
		GapHorizontal: t.Gap.Horizontal,
		GapVertical:   t.Gap.Vertical,
		AutoMargins:   true,
	}
	if t.Margins != nil {
		cfg.AutoMargins = t.Margins.Auto
		cfg.MarginLeft = t.Margins.Left
		cfg.MarginTop = t.Margins.Top
	}
	return cfg
}

// ParseTemplate decodes one YAML template and validates its geometry.
func ParseTemplate(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parse template: %w", err)
	}
	if t.Name == "" {
		return Template{}, fmt.Errorf("template has no name")
	}
	if err := t.Config().Validate(); err != nil {
		return Template{}, fmt.Errorf("template %q: %w", t.Name, err)
	}
	return t, nil
}

// LoadTemplateFile reads and parses one template file.
func LoadTemplateFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(data)
}

// ResolveTemplate maps a template name to its geometry. The empty name and
// DefaultTemplateName resolve to the built-in sheet; any other name loads
// <dir>/<name>.yaml.
func ResolveTemplate(dir, name string) (Template, error) {
	if name == "" || name == DefaultTemplateName {
		return DefaultTemplate(), nil
	}
	if dir == "" {
		return Template{}, fmt.Errorf("template %q: no templates directory configured", name)
	}
	return LoadTemplateFile(filepath.Join(dir, name+".yaml"))
}
