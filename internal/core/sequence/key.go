// Package sequence provides domain contracts for per-variant serial numbering.
// Implementations of the Store live in the infrastructure layer.
package sequence

import (
	"fmt"
	"strings"
)

// Key identifies the numbering namespace of one inventory variant.
// There is exactly one sequence record per Key.
type Key struct {
	Category string `json:"category" db:"category"`
	Product  string `json:"product" db:"product"`
	Size     string `json:"size" db:"size"`
}

// NewKey builds a Key with whitespace trimmed from all parts.
func NewKey(category, product, size string) Key {
	return Key{
		Category: strings.TrimSpace(category),
		Product:  strings.TrimSpace(product),
		Size:     strings.TrimSpace(size),
	}
}

// Validate checks that every part of the key is present.
func (k Key) Validate() error {
	if k.Category == "" {
		return fmt.Errorf("variant key: category is empty")
	}
	if k.Product == "" {
		return fmt.Errorf("variant key: product code is empty")
	}
	if k.Size == "" {
		return fmt.Errorf("variant key: size is empty")
	}
	return nil
}

// String renders the key in its canonical "category/product/size" form,
// used as the store key and in log fields.
func (k Key) String() string {
	return k.Category + "/" + k.Product + "/" + k.Size
}

// ParseKey parses a canonical "category/product/size" string.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("variant key %q: want category/product/size", s)
	}
	k := NewKey(parts[0], parts[1], parts[2])
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}
