package swath

// Tag is the coarse per-swath usability classification. It is derived once
// from the gap filler's fully-valid channel set and only ever selects an
// output directory bucket.
type Tag string

const (
	// TagDaylight marks a swath whose channels all filled, visible bands
	// included.
	TagDaylight Tag = "daylight"
	// TagNight marks a swath where exactly the non-visible channels filled.
	TagNight Tag = "night"
	// TagCorrupt marks any other fill outcome.
	TagCorrupt Tag = "corrupt"
)

// Classify maps the ordered set of fully-valid channel indices onto a tag.
// fullSet and nightSet come from configuration; the classification is a
// closed three-way comparison over those declared sets.
func Classify(filled, fullSet, nightSet []int) Tag {
	switch {
	case equalIntSets(filled, fullSet):
		return TagDaylight
	case equalIntSets(filled, nightSet):
		return TagNight
	default:
		return TagCorrupt
	}
}

func equalIntSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
