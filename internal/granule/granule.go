// Package granule handles observation granule naming: acquisition time
// parsing, canonical output names and companion product lookup.
package granule

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cumulus-data/swath.report/internal/fsutil"
)

// ErrAlreadyExtracted reports that a swath's canonical output already exists
// under the output root. Raised before any loader runs so no interpolation
// or alignment cost is spent on already-processed input.
var ErrAlreadyExtracted = errors.New("swath already extracted")

// Granule basenames embed the acquisition time as ".A<year><doy>.<hhmm>.",
// e.g. "RAD1KM.A2008153.1355.061.nc".
var stampRe = regexp.MustCompile(`\.A(\d{4})(\d{3})\.(\d{2})(\d{2})\.`)

// TimeInfo is the acquisition time embedded in a granule basename.
type TimeInfo struct {
	Year      int
	DayOfYear int
	Hour      int
	Minute    int
}

// ParseTimeInfo extracts the acquisition time from a granule path or
// basename.
func ParseTimeInfo(path string) (TimeInfo, error) {
	base := filepath.Base(path)
	m := stampRe.FindStringSubmatch(base)
	if m == nil {
		return TimeInfo{}, fmt.Errorf("no acquisition timestamp in granule name %q", base)
	}
	year, _ := strconv.Atoi(m[1])
	doy, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	if doy < 1 || doy > 366 || hour > 23 || minute > 59 {
		return TimeInfo{}, fmt.Errorf("invalid acquisition timestamp in granule name %q", base)
	}
	return TimeInfo{Year: year, DayOfYear: doy, Hour: hour, Minute: minute}, nil
}

// Stamp returns the "A<year><doy>.<hhmm>" form shared by all products of the
// same swath, used to locate companion granules.
func (t TimeInfo) Stamp() string {
	return fmt.Sprintf("A%04d%03d.%02d%02d", t.Year, t.DayOfYear, t.Hour, t.Minute)
}

// CanonicalName returns the deterministic output filename for this swath.
func (t TimeInfo) CanonicalName() string {
	return fmt.Sprintf("A%04d.%03d.%02d%02d.nc", t.Year, t.DayOfYear, t.Hour, t.Minute)
}

// CheckNotExtracted recursively searches the output root for the canonical
// filename and returns ErrAlreadyExtracted (with the offending path) if any
// match exists.
func CheckNotExtracted(fs fsutil.FileSystem, outputRoot, canonicalName string) error {
	matches, err := fs.WalkMatch(outputRoot, canonicalName)
	if err != nil {
		return fmt.Errorf("scanning output root %s: %w", outputRoot, err)
	}
	if len(matches) > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExtracted, matches[0])
	}
	return nil
}

// FindCompanion locates the single granule in dir whose basename carries the
// given acquisition stamp. Zero or multiple matches are errors: companion
// products are keyed one-to-one by acquisition time.
func FindCompanion(fs fsutil.FileSystem, dir, stamp string) (string, error) {
	names, err := fs.ListDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}
	var matches []string
	for _, name := range names {
		if strings.Contains(name, stamp) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no granule with stamp %s in %s", stamp, dir)
	case 1:
		return filepath.Join(dir, matches[0]), nil
	default:
		return "", fmt.Errorf("%d granules with stamp %s in %s", len(matches), stamp, dir)
	}
}
