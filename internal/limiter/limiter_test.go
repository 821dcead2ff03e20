package limiter

import "testing"

func TestLimitFor(t *testing.T) {
	t.Parallel()

	// "112" is on the large allow-list, "118" on the medium one.
	if got := LimitFor("112", 80, 180); got != 160 {
		t.Fatalf("large category cap = %d, want 160", got)
	}
	if got := LimitFor("118", 80, 180); got != 120 {
		t.Fatalf("medium category cap = %d, want 120", got)
	}
	if got := LimitFor("9999", 80, 180); got != 80 {
		t.Fatalf("default category cap = %d, want 80", got)
	}
	// maxLimit clamps everything.
	if got := LimitFor("112", 80, 100); got != 100 {
		t.Fatalf("clamped large cap = %d, want 100", got)
	}
}

func TestComputeLimitsTiers(t *testing.T) {
	t.Parallel()

	sizes := map[string]int{
		"big":   200, // 20% share -> large tier
		"mid":   50,  // 5% share -> medium tier
		"small": 10,  // 1% share -> small tier
	}
	// pad total to 1000 rows
	sizes["rest"] = 740

	limits := ComputeLimits(sizes)

	if got := limits["big"]; got != 120 {
		t.Fatalf("large tier cap = %d, want ceiling 120", got)
	}
	if got := limits["mid"]; got != 65 {
		t.Fatalf("medium tier cap = %d, want 1.3*50 = 65", got)
	}
	if got := limits["small"]; got != 15 {
		t.Fatalf("small tier cap = %d, want 1.5*10 = 15", got)
	}
}

func TestComputeLimitsMonotoneWithinTierAndBounded(t *testing.T) {
	t.Parallel()

	// All categories land in the small tier (<4% of a large total).
	sizes := map[string]int{"a": 5, "b": 10, "c": 20, "d": 39, "pad": 10000}
	limits := ComputeLimits(sizes)

	if !(limits["a"] <= limits["b"] && limits["b"] <= limits["c"] && limits["c"] <= limits["d"]) {
		t.Fatalf("caps not non-decreasing in size: %v", limits)
	}
	for id, l := range limits {
		if id == "pad" {
			continue
		}
		if l > smallCeiling {
			t.Fatalf("small tier cap %d for %s exceeds ceiling %d", l, id, smallCeiling)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	if got := Classify(0.10); got != TierLarge {
		t.Fatalf("Classify(0.10) = %s, want large", got)
	}
	if got := Classify(0.05); got != TierMedium {
		t.Fatalf("Classify(0.05) = %s, want medium", got)
	}
	if got := Classify(0.01); got != TierSmall {
		t.Fatalf("Classify(0.01) = %s, want small", got)
	}
}

func TestTrackerAdmitCountsAndCaps(t *testing.T) {
	t.Parallel()

	tr := NewTracker(func(string) int { return 2 }, 180)

	if !tr.Admit("A", false) || !tr.Admit("A", false) {
		t.Fatal("expected first two admits under the cap")
	}
	if tr.Admit("A", false) {
		t.Fatal("expected third admit to be denied at cap with empty queue")
	}
	if _, ok := tr.Incomplete()["A"]; ok {
		t.Fatal("category should not be incomplete when the queue is drained")
	}
	if tr.Counts()["A"] != 2 {
		t.Fatalf("count = %d, want 2", tr.Counts()["A"])
	}
}

func TestTrackerAdaptiveExtension(t *testing.T) {
	t.Parallel()

	tr := NewTracker(func(string) int { return 10 }, 180)

	// Fill to 90% of the cap; the queue still has work, so the next admit
	// extends the cap instead of stopping.
	for range 9 {
		if !tr.Admit("A", true) {
			t.Fatal("unexpected denial below cap")
		}
	}
	for i := 0; i < 21; i++ {
		if !tr.Admit("A", true) {
			t.Fatalf("admit %d denied; extension should have raised the cap", i)
		}
	}
	if tr.Counts()["A"] != 30 {
		t.Fatalf("count = %d, want 30 after one extension round", tr.Counts()["A"])
	}
}

func TestTrackerExtensionNeverExceedsMaxLimit(t *testing.T) {
	t.Parallel()

	const maxLimit = 25
	tr := NewTracker(func(string) int { return 20 }, maxLimit)

	admitted := 0
	for range 1000 {
		if tr.Admit("A", true) {
			admitted++
		}
	}
	if admitted > maxLimit {
		t.Fatalf("admitted %d rows, max limit is %d", admitted, maxLimit)
	}
	if _, ok := tr.Incomplete()["A"]; !ok {
		t.Fatal("expected category to be marked incomplete at the hard bound")
	}
}

func TestTrackerIncompleteMarking(t *testing.T) {
	t.Parallel()

	tr := NewTracker(func(string) int { return 1 }, 1)

	if !tr.Admit("A", false) {
		t.Fatal("expected first admit")
	}
	// Related ids arrive after collection; the category is at its cap, so
	// pending work marks it incomplete.
	tr.NotePending("A", true)
	if _, ok := tr.Incomplete()["A"]; !ok {
		t.Fatal("expected incomplete marking once pending work exists at cap")
	}
}
