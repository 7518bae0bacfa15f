package swath

// Reserved metadata keys under which the alignment span and pixel mapping
// are folded into the track variable mapping on output.
const (
	SpanKey    = "width-range"
	MappingKey = "mapping"
)

// PixelCoord addresses one swath grid pixel.
type PixelCoord struct {
	Row int
	Col int
}

// TrackRecord is the optional per-swath track alignment result. A nil
// *TrackRecord means alignment failed or produced no overlap; callers must
// treat nil and "record with zero variables" differently.
type TrackRecord struct {
	// Span holds the minimal and maximal grid column indices covered by the
	// track footprint.
	Span [2]int
	// Mapping maps each retained track sample to its swath pixel.
	Mapping []PixelCoord
	// Variables maps track-variable names to per-sample values, in the same
	// order as Mapping.
	Variables map[string][]float64
}

// RecordFromMerged rebuilds a TrackRecord from a merged variable mapping, as
// produced by Merged and round-tripped through persistence. A nil or empty
// map yields a nil record.
func RecordFromMerged(m map[string][]float64) *TrackRecord {
	if len(m) == 0 {
		return nil
	}
	rec := &TrackRecord{Variables: make(map[string][]float64)}
	for k, v := range m {
		switch k {
		case SpanKey:
			if len(v) == 2 {
				rec.Span = [2]int{int(v[0]), int(v[1])}
			}
		case MappingKey:
			rec.Mapping = make([]PixelCoord, 0, len(v)/2)
			for i := 0; i+1 < len(v); i += 2 {
				rec.Mapping = append(rec.Mapping, PixelCoord{Row: int(v[i]), Col: int(v[i+1])})
			}
		default:
			vals := make([]float64, len(v))
			copy(vals, v)
			rec.Variables[k] = vals
		}
	}
	return rec
}

// Merged returns the variable mapping with the span and pixel mapping folded
// in under the reserved keys, as flat float64 series suitable for
// persistence. The receiver is not modified.
func (r *TrackRecord) Merged() map[string][]float64 {
	if r == nil {
		return nil
	}
	out := make(map[string][]float64, len(r.Variables)+2)
	for k, v := range r.Variables {
		vals := make([]float64, len(v))
		copy(vals, v)
		out[k] = vals
	}
	out[SpanKey] = []float64{float64(r.Span[0]), float64(r.Span[1])}
	mapping := make([]float64, 0, 2*len(r.Mapping))
	for _, p := range r.Mapping {
		mapping = append(mapping, float64(p.Row), float64(p.Col))
	}
	out[MappingKey] = mapping
	return out
}
