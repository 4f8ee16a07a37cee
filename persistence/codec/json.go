package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
//   - Snapshots (time-series bound/solution-count records) and solution exports
//     are plain structs/slices; JSON round-trips them without loss.
//   - time.Time fields (Snapshot.Taken, LedgerEntry.Posted) round-trip as
//     RFC 3339 strings; complex numbers, funcs and channels are not
//     supported, and the data model here has none.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec, JSON wrapped in zstd compression.
//
// NOTE: this affects newly-created snapshots/ledger entries. Existing
// persisted files are self-describing (they record the codec name) and are
// opened by selecting the appropriate codec via ByName.
var Default Codec = Compressed(JSON{}, Zstd)
