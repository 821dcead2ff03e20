// Package limiter computes and enforces per-category exploration caps.
//
// Caps come from two places: a static classification of known-big aisles
// used on first build, and size-share derived limits recomputed from an
// existing catalog for refresh crawls. During a live crawl the Tracker
// applies the caps and extends them adaptively so categories with many
// reachable products are not truncated at a hard stop.
package limiter

// Tier classifies a category by its share of the total catalog.
type Tier string

// Category tiers.
const (
	TierLarge  Tier = "large"
	TierMedium Tier = "medium"
	TierSmall  Tier = "small"
)

// Share thresholds and per-tier ceilings for computed limits.
const (
	largeShare  = 0.08
	mediumShare = 0.04

	largeCeiling  = 120
	mediumCeiling = 90
	smallCeiling  = 60
)

// largeCategories and mediumCategories are the fixed allow-lists of aisle
// category ids observed to be much bigger than average in prior full builds.
var largeCategories = map[string]struct{}{
	"112": {}, // fruit & vegetables
	"156": {}, // chilled & dairy
	"89":  {}, // beverages
	"105": {}, // bakery
}

var mediumCategories = map[string]struct{}{
	"118": {}, // frozen
	"135": {}, // pantry
	"77":  {}, // snacks
	"201": {}, // personal care
}

// LimitFor returns the initial exploration cap for a category: double the
// base for the large allow-list, 1.5x for the medium one, the base for
// everything else, always clamped to maxLimit.
func LimitFor(categoryID string, baseLimit, maxLimit int) int {
	if _, ok := largeCategories[categoryID]; ok {
		return min(maxLimit, 2*baseLimit)
	}
	if _, ok := mediumCategories[categoryID]; ok {
		return min(maxLimit, baseLimit+baseLimit/2)
	}
	return min(maxLimit, baseLimit)
}

// Classify buckets a category's share of total rows into a tier.
func Classify(share float64) Tier {
	switch {
	case share > largeShare:
		return TierLarge
	case share >= mediumShare:
		return TierMedium
	default:
		return TierSmall
	}
}

// ComputeLimits derives per-category caps purely from the observed size
// distribution: big categories get modest headroom under a high ceiling,
// small ones get proportionally more headroom under a low ceiling.
func ComputeLimits(sizes map[string]int) map[string]int {
	total := 0
	for _, n := range sizes {
		total += n
	}
	limits := make(map[string]int, len(sizes))
	for id, n := range sizes {
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total)
		}
		switch Classify(share) {
		case TierLarge:
			limits[id] = min(largeCeiling, int(1.2*float64(n)))
		case TierMedium:
			limits[id] = min(mediumCeiling, int(1.3*float64(n)))
		default:
			limits[id] = min(smallCeiling, int(1.5*float64(n)))
		}
	}
	return limits
}

// extensionStep bounds each adaptive cap extension.
const extensionStep = 20

// Tracker applies caps during a single traversal, counting collected rows
// per category, extending caps near exhaustion, and recording categories
// whose exploration was cut off.
type Tracker struct {
	capFor     func(categoryID string) int
	maxLimit   int
	caps       map[string]int
	counts     map[string]int
	incomplete map[string]struct{}
}

// NewTracker creates a Tracker. capFor supplies the initial cap per
// category; maxLimit is the hard upper bound no cap may exceed, even after
// extensions.
func NewTracker(capFor func(categoryID string) int, maxLimit int) *Tracker {
	return &Tracker{
		capFor:     capFor,
		maxLimit:   maxLimit,
		caps:       make(map[string]int),
		counts:     make(map[string]int),
		incomplete: make(map[string]struct{}),
	}
}

func (t *Tracker) currentCap(categoryID string) int {
	c, ok := t.caps[categoryID]
	if !ok {
		c = t.capFor(categoryID)
		if c > t.maxLimit {
			c = t.maxLimit
		}
		t.caps[categoryID] = c
	}
	return c
}

// Admit decides whether one more row may be collected for the category and
// counts it if so. pending reports whether unexplored ids remain in the
// current queue; it gates both the adaptive extension and incomplete
// marking. When the running count reaches 90% of the current cap with work
// still queued, the cap is extended by min(extensionStep, maxLimit-count),
// clamped so the final cap never exceeds maxLimit.
func (t *Tracker) Admit(categoryID string, pending bool) bool {
	limit := t.currentCap(categoryID)
	count := t.counts[categoryID]

	if pending && limit < t.maxLimit && count*10 >= limit*9 {
		ext := extensionStep
		if room := t.maxLimit - count; ext > room {
			ext = room
		}
		limit += ext
		if limit > t.maxLimit {
			limit = t.maxLimit
		}
		t.caps[categoryID] = limit
	}

	if count >= limit {
		if pending {
			t.incomplete[categoryID] = struct{}{}
		}
		return false
	}

	count++
	t.counts[categoryID] = count
	if count >= limit && pending {
		t.incomplete[categoryID] = struct{}{}
	}
	return true
}

// NotePending re-checks incomplete marking after the queue has grown: a
// category already at its cap is incomplete the moment unexplored ids
// remain.
func (t *Tracker) NotePending(categoryID string, pending bool) {
	if !pending {
		return
	}
	if t.counts[categoryID] >= t.currentCap(categoryID) {
		t.incomplete[categoryID] = struct{}{}
	}
}

// Counts returns the per-category collected counts.
func (t *Tracker) Counts() map[string]int {
	return t.counts
}

// Incomplete returns the set of categories cut off by their cap.
func (t *Tracker) Incomplete() map[string]struct{} {
	return t.incomplete
}
