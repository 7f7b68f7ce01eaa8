package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"roadviz/internal/domain"
)

// Importer interface for importing graph data from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.GraphFragment, error)
	Format() string
}

// Exporter interface for exporting graph data to various formats
type Exporter interface {
	Export(fragment *domain.GraphFragment, w io.Writer) error
	Format() string
}

// Codec both imports and exports a format
type Codec interface {
	Importer
	Exporter
}

// Formats lists the supported format identifiers
func Formats() []string {
	return []string{"json", "yaml", "geojson"}
}

// ByFormat returns the codec registered under a format name
func ByFormat(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "geojson":
		return NewGeoJSONCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", name)
	}
}

// ForPath picks a codec from a file extension.
// A .json file containing a FeatureCollection should be opened with ByFormat("geojson").
func ForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONCodec(), nil
	case ".yaml", ".yml":
		return NewYAMLCodec(), nil
	case ".geojson":
		return NewGeoJSONCodec(), nil
	default:
		return nil, fmt.Errorf("cannot infer format from %q", path)
	}
}
