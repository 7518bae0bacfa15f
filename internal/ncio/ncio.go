// Package ncio persists pipeline products: fused swaths and tile batches as
// NetCDF classic files, visual subsets as PNG.
package ncio

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ReadArray reads one variable from a NetCDF file into a DenseArray,
// whatever its on-disk numeric type.
func ReadArray(path, name string) (*sparse.DenseArray, error) {
	f, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return readArray(f, name)
}

// ReadArrays reads several variables from one NetCDF file in a single open.
func ReadArrays(path string, names ...string) (map[string]*sparse.DenseArray, error) {
	f, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make(map[string]*sparse.DenseArray, len(names))
	for _, name := range names {
		a, err := readArray(f, name)
		if err != nil {
			return nil, err
		}
		out[name] = a
	}
	return out, nil
}

func open(path string) (*cdf.File, *os.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	f, err := cdf.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("reading NetCDF header of %s: %w", path, err)
	}
	return f, r, nil
}

func readArray(f *cdf.File, name string) (*sparse.DenseArray, error) {
	if !hasVariable(f, name) {
		return nil, fmt.Errorf("variable %q not present", name)
	}
	dims := f.Header.Lengths(name)
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %q: %w", name, err)
	}

	out := sparse.ZerosDense(dims...)
	n := len(out.Elements)
	switch data := buf.(type) {
	case []float64:
		if len(data) != n {
			return nil, fmt.Errorf("variable %q: dims give %d values, read %d", name, n, len(data))
		}
		copy(out.Elements, data)
	case []float32:
		if len(data) != n {
			return nil, fmt.Errorf("variable %q: dims give %d values, read %d", name, n, len(data))
		}
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	case []int8:
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %q: unsupported NetCDF type %T", name, buf)
	}
	return out, nil
}

func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// WriteArrays writes a set of named float arrays to a new NetCDF file. Dims
// are named per variable ("<var>_d0", ...), except that identically-shaped
// grids share nothing: this writer is for small fixture and track series
// files; fused products go through WriteSwath.
func WriteArrays(path string, arrays map[string]*sparse.DenseArray, attrs map[string]string) error {
	names := make([]string, 0, len(arrays))
	for n := range arrays {
		names = append(names, n)
	}
	sort.Strings(names)

	var dimNames []string
	var dimLens []int
	varDims := make(map[string][]string, len(names))
	for _, n := range names {
		a := arrays[n]
		dims := make([]string, len(a.Shape))
		for i, l := range a.Shape {
			d := fmt.Sprintf("%s_d%d", n, i)
			dims[i] = d
			dimNames = append(dimNames, d)
			dimLens = append(dimLens, l)
		}
		varDims[n] = dims
	}

	h := cdf.NewHeader(dimNames, dimLens)
	for _, n := range names {
		h.AddVariable(n, varDims[n], []float32{0})
	}
	for _, k := range sortedKeys(attrs) {
		h.AddAttribute("", k, attrs[k])
	}
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
	for _, n := range names {
		if err := writeVariable(f, n, arrays[n].Elements); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeVariable(f *cdf.File, name string, values []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, v := range end {
		n *= v
	}
	if len(values) != n {
		return fmt.Errorf("variable %q: dims give %d values, have %d", name, n, len(values))
	}
	data32 := make([]float32, len(values))
	for i, e := range values {
		data32[i] = float32(e)
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data32); err != nil {
		return fmt.Errorf("writing variable %q: %w", name, err)
	}
	return nil
}

func writeVariable32(f *cdf.File, name string, values []float32) error {
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

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// trackVarName maps a metadata key onto a NetCDF-safe variable name.
func trackVarName(key string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return "track_" + s
}
