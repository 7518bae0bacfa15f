package ncio

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"

	"github.com/cumulus-data/swath.report/internal/swath"
)

// ChannelsVariable is the NetCDF variable holding the fused channel stack.
const ChannelsVariable = "channels"

// WriteSwath writes a fused tensor and its optional track metadata to a new
// NetCDF file. Track series are stored one variable each under a
// "track_"-prefixed name carrying the original metadata key as an attribute,
// so absence of any track variable on read means alignment was absent.
func WriteSwath(path string, t *swath.Tensor, rec *swath.TrackRecord, source string, tag swath.Tag) error {
	merged := rec.Merged()

	dimNames := []string{"channel", "row", "col"}
	dimLens := []int{t.Channels, t.Rows, t.Cols}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		// Zero-length series cannot be represented as a classic dimension;
		// they are dropped and reconstructed as absent on read.
		if len(merged[k]) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		dimNames = append(dimNames, trackVarName(k)+"_n")
		dimLens = append(dimLens, len(merged[k]))
	}

	h := cdf.NewHeader(dimNames, dimLens)
	h.AddVariable(ChannelsVariable, []string{"channel", "row", "col"}, []float32{0})
	for _, k := range keys {
		name := trackVarName(k)
		h.AddVariable(name, []string{name + "_n"}, []float64{0})
		h.AddAttribute(name, "key", k)
	}
	h.AddAttribute("", "source_granule", source)
	h.AddAttribute("", "usability_tag", string(tag))
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer w.Close()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("writing NetCDF header of %s: %w", path, err)
	}

	if err := writeVariable32(f, ChannelsVariable, t.Data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, k := range keys {
		if err := writeVariable64(f, trackVarName(k), merged[k]); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeVariable64(f *cdf.File, name string, values []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, v := range end {
		n *= v
	}
	if len(values) != n {
		return fmt.Errorf("variable %q: dims give %d values, have %d", name, n, len(values))
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(values); err != nil {
		return fmt.Errorf("writing variable %q: %w", name, err)
	}
	return nil
}

// ReadSwath reads back a fused tensor and its track record (nil when the
// file carries no track variables).
func ReadSwath(path string) (*swath.Tensor, *swath.TrackRecord, error) {
	f, closer, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	dims := f.Header.Lengths(ChannelsVariable)
	if len(dims) != 3 {
		return nil, nil, fmt.Errorf("%s: variable %q has %d dims, want 3", path, ChannelsVariable, len(dims))
	}
	r := f.Reader(ChannelsVariable, nil, nil)
	buf := make([]float32, dims[0]*dims[1]*dims[2])
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("%s: reading %q: %w", path, ChannelsVariable, err)
	}
	t := &swath.Tensor{Channels: dims[0], Rows: dims[1], Cols: dims[2], Data: buf}

	merged := make(map[string][]float64)
	for _, v := range f.Header.Variables() {
		if !strings.HasPrefix(v, "track_") {
			continue
		}
		key, _ := f.Header.GetAttribute(v, "key").(string)
		if key == "" {
			key = strings.TrimPrefix(v, "track_")
		}
		n := f.Header.Lengths(v)[0]
		vr := f.Reader(v, nil, nil)
		vals := make([]float64, n)
		if _, err := vr.Read(vals); err != nil {
			return nil, nil, fmt.Errorf("%s: reading %q: %w", path, v, err)
		}
		merged[key] = vals
	}
	return t, swath.RecordFromMerged(merged), nil
}

// SourceGranule returns the source_granule attribute of a fused swath file.
func SourceGranule(path string) (string, error) {
	f, closer, err := open(path)
	if err != nil {
		return "", err
	}
	defer closer.Close()
	s, _ := f.Header.GetAttribute("", "source_granule").(string)
	return s, nil
}
