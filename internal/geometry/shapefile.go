package geometry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
)

// ShapefileSuffix is the required extension of shapefile outputs.
const ShapefileSuffix = ".shp"

var (
	ErrInvalidShapefileSuffix = errors.New("shapefile path must end in .shp")
	ErrUnsupportedShape       = errors.New("unsupported shape type")
)

// ValidateShapefilePath checks the output suffix. The comparison is
// case-sensitive.
func ValidateShapefilePath(path string) error {
	if !strings.HasSuffix(path, ShapefileSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidShapefileSuffix, path)
	}
	return nil
}

// ReadShapefile loads a polygon shapefile with its attributes and projection.
func ReadShapefile(path string) (*Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer r.Close()

	switch r.GeometryType {
	case shp.POLYGON, shp.POLYGONZ, shp.NULL:
	default:
		return nil, fmt.Errorf("%w: shape type %d", ErrUnsupportedShape, r.GeometryType)
	}

	shpFields := r.Fields()
	layer := &Layer{Fields: make([]Field, len(shpFields))}
	for i, f := range shpFields {
		layer.Fields[i] = Field{
			Name:      fieldName(f),
			Type:      f.Fieldtype,
			Size:      f.Size,
			Precision: f.Precision,
		}
	}

	for r.Next() {
		n, shape := r.Shape()

		feature := Feature{Attributes: make(map[string]string, len(shpFields))}
		for i, f := range layer.Fields {
			feature.Attributes[f.Name] = strings.Trim(r.ReadAttribute(n, i), " \x00")
		}

		switch s := shape.(type) {
		case *shp.Polygon:
			feature.Geometry = partsToGeometry(s.Parts, s.Points)
		case *shp.PolygonZ:
			feature.Geometry = partsToGeometry(s.Parts, s.Points)
		case *shp.Null, nil:
		default:
			return nil, fmt.Errorf("record %d: %w: %T", n, ErrUnsupportedShape, shape)
		}
		layer.Features = append(layer.Features, feature)
	}

	prj, err := os.ReadFile(siblingPath(path, ".prj"))
	switch {
	case err == nil:
		layer.Projection = strings.TrimSpace(string(prj))
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read projection: %w", err)
	}

	slog.Debug("Shapefile loaded",
		slog.String("path", path),
		slog.Int("features", len(layer.Features)),
		slog.Int("fields", len(layer.Fields)),
		slog.Bool("has_projection", layer.Projection != ""))

	return layer, nil
}

// WriteShapefile writes the layer and its joined totals to path. The suffix
// is validated before anything touches the filesystem. A .prj is written when
// the layer carries a projection.
func WriteShapefile(path string, layer *Layer) error {
	if err := ValidateShapefilePath(path); err != nil {
		return err
	}

	columns := dbfColumns(layer)
	fields := make([]shp.Field, len(columns))
	for i, c := range columns {
		fields[i] = c.shpField()
	}

	// encode geometry up front so a bad shape leaves no partial output
	shapes := make([]shp.Shape, len(layer.Features))
	for i, f := range layer.Features {
		shape, err := toShape(f)
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		shapes[i] = shape
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for i, shape := range shapes {
		row := int(w.Write(shape))
		for j, c := range columns {
			if err := w.WriteAttribute(row, j, c.cell(&layer.Features[i])); err != nil {
				return fmt.Errorf("feature %d field %q: %w", i, c.name, err)
			}
		}
	}

	if layer.Projection != "" {
		if err := os.WriteFile(siblingPath(path, ".prj"), []byte(layer.Projection), 0644); err != nil {
			return fmt.Errorf("failed to write projection: %w", err)
		}
	}

	slog.Debug("Shapefile written",
		slog.String("path", path),
		slog.Int("features", len(shapes)),
		slog.Int("fields", len(fields)))

	return nil
}

func toShape(f Feature) (shp.Shape, error) {
	// an empty polygon record keeps the file homogeneous
	if f.Geometry == nil {
		return &shp.Polygon{}, nil
	}
	parts, err := geometryToParts(f.Geometry)
	if err != nil {
		return nil, err
	}
	polygon := shp.Polygon(*shp.NewPolyLine(parts))
	return &polygon, nil
}

func fieldName(f shp.Field) string {
	return strings.TrimRight(string(f.Name[:]), "\x00 ")
}

func siblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
