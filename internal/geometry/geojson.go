package geometry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"faftonnage/pkg/contracts/domain"
)

// FeatureCollection converts the layer to GeoJSON. Numeric attributes become
// numbers and joined totals use their full column names, null when the
// feature has no match.
func FeatureCollection(layer *Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	extra := extraNames(layer)
	for i := range layer.Features {
		f := &layer.Features[i]

		gf := geojson.NewFeature(f.Geometry)
		for _, field := range layer.Fields {
			gf.Properties[field.Name] = propertyValue(field, f.Attributes[field.Name])
		}

		if layer.JoinKey != "" {
			if f.Totals != nil {
				gf.Properties[domain.ZoneNameColumn] = f.Totals.Name
				gf.Properties[domain.ImportColumn] = f.Totals.TotalImport
				gf.Properties[domain.ExportColumn] = f.Totals.TotalExport
			} else {
				gf.Properties[domain.ZoneNameColumn] = nil
				gf.Properties[domain.ImportColumn] = nil
				gf.Properties[domain.ExportColumn] = nil
			}
			for _, name := range extra {
				gf.Properties[name] = nil
				if f.Totals == nil {
					continue
				}
				if v, ok := domain.AttributeValue(f.Totals.Extra, name); ok {
					gf.Properties[name] = v
				}
			}
		}
		fc.Append(gf)
	}
	return fc
}

// WriteGeoJSON writes the layer as a GeoJSON FeatureCollection.
func WriteGeoJSON(path string, layer *Layer) error {
	fc := FeatureCollection(layer)
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}

	slog.Debug("GeoJSON written",
		slog.String("path", path),
		slog.Int("features", len(fc.Features)))
	return nil
}

func propertyValue(field Field, raw string) interface{} {
	if raw == "" {
		return nil
	}
	if field.IsNumeric() {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}
