package geometry

import (
	"errors"
	"fmt"
	"log/slog"

	"faftonnage/internal/aggregate"
	"faftonnage/pkg/contracts/domain"
)

var ErrJoinKeyNotFound = errors.New("join key not found in layer")

// Merge left-joins table onto layer by the key attribute. Every feature is
// kept, in order. Features whose key matches no zone have nil Totals. Key
// values on both sides are compared after aggregate.PadZoneCode. The input
// layer is not modified.
func Merge(layer *Layer, table []domain.ZoneTotals, key string) (*Layer, error) {
	if !layer.HasField(key) {
		return nil, fmt.Errorf("%w: %q", ErrJoinKeyNotFound, key)
	}

	lookup := aggregate.Lookup(table)
	merged := &Layer{
		Fields:     append([]Field(nil), layer.Fields...),
		Features:   make([]Feature, len(layer.Features)),
		Projection: layer.Projection,
		JoinKey:    key,
	}

	unmatched := 0
	for i, f := range layer.Features {
		out := Feature{
			Attributes: f.Attributes,
			Geometry:   f.Geometry,
		}
		if t, ok := lookup[aggregate.PadZoneCode(f.Attributes[key])]; ok {
			out.Totals = &t
		} else {
			unmatched++
		}
		merged.Features[i] = out
	}

	slog.Debug("Zone totals merged",
		slog.String("key", key),
		slog.Int("features", len(merged.Features)),
		slog.Int("zones", len(lookup)),
		slog.Int("unmatched_features", unmatched))

	return merged, nil
}
