// Package rotation partitions the known-product set into 4 shards and
// persists which shard is due for re-verification next.
package rotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Shards is the number of re-verification partitions; 4 runs cover the
// whole catalog.
const Shards = 4

// State is the small document persisted between runs.
type State struct {
	Timestamp             time.Time `json:"timestamp"`
	ShardIndex            int       `json:"shard_index"`
	IncompleteCategoryIDs []string  `json:"incomplete_category_ids"`
}

// Shard selects every id whose position in the stable enumeration of
// knownIDs is congruent to shardIndex modulo Shards. Membership depends
// only on position, so four successive shards partition the set exactly.
func Shard(knownIDs []string, shardIndex int) []string {
	shardIndex = ((shardIndex % Shards) + Shards) % Shards
	var out []string
	for i := shardIndex; i < len(knownIDs); i += Shards {
		out = append(out, knownIDs[i])
	}
	return out
}

// Advance returns the next shard index.
func Advance(shardIndex int) int {
	return (shardIndex + 1) % Shards
}

// Load reads the persisted state from path. A missing file is not an
// error: it reports found=false and the caller falls back to full-build
// mode.
func Load(path string) (State, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("read rotation state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("decode rotation state: %w", err)
	}
	return st, true, nil
}

// Save overwrites the state document at path.
func Save(path string, st State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rotation state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write rotation state: %w", err)
	}
	return nil
}
