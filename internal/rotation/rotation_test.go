package rotation

import (
	"path/filepath"
	"testing"
	"time"
)

func TestShardSelectsByPosition(t *testing.T) {
	t.Parallel()

	known := []string{"1", "2", "3", "4", "5", "6", "7", "8"}

	got := Shard(known, 0)
	want := []string{"1", "5"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Shard(known, 0) = %v, want %v", got, want)
	}
}

func TestShardsPartitionKnownIDs(t *testing.T) {
	t.Parallel()

	known := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		known = append(known, string(rune('a'+i)))
	}

	seen := make(map[string]int)
	total := 0
	for shard := 0; shard < Shards; shard++ {
		for _, id := range Shard(known, shard) {
			seen[id]++
			total++
		}
	}
	if total != len(known) {
		t.Fatalf("shards cover %d ids, want %d", total, len(known))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("id %s appears in %d shards", id, n)
		}
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	t.Parallel()

	idx := 2
	for i := 0; i < Shards; i++ {
		idx = Advance(idx)
	}
	if idx != 2 {
		t.Fatalf("four advances should return to the start, got %d", idx)
	}
	if Advance(3) != 0 {
		t.Fatalf("Advance(3) = %d, want 0", Advance(3))
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "rotation_state.json")

	if _, found, err := Load(path); err != nil || found {
		t.Fatalf("expected clean miss for absent state, got found=%v err=%v", found, err)
	}

	st := State{
		Timestamp:             time.Date(2026, 8, 26, 6, 0, 0, 0, time.UTC),
		ShardIndex:            3,
		IncompleteCategoryIDs: []string{"112", "89"},
	}
	if err := Save(path, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, found, err := Load(path)
	if err != nil || !found {
		t.Fatalf("Load() found=%v err=%v", found, err)
	}
	if got.ShardIndex != 3 || len(got.IncompleteCategoryIDs) != 2 || !got.Timestamp.Equal(st.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
