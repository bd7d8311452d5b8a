package cloud

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/klondike/internal/model"
)

// Bundle file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath guesses the bundle format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// EncodeBundle writes b to w in the given format.
func EncodeBundle(w io.Writer, b model.Bundle, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown bundle format %q", format)
	}
}

// DecodeBundle reads a bundle in the given format.
func DecodeBundle(r io.Reader, format string) (model.Bundle, error) {
	var b model.Bundle
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return model.Bundle{}, fmt.Errorf("decode json bundle: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&b); err != nil {
			return model.Bundle{}, fmt.Errorf("decode yaml bundle: %w", err)
		}
	default:
		return model.Bundle{}, fmt.Errorf("unknown bundle format %q", format)
	}
	return b, nil
}
