// Package persist serializes a compiled parse result to the portable
// binary blob spec.md §6 describes ("Persistence"): a gob-encoded,
// gzip-compressed object graph, stored in and read back from a known
// row of a system table.
package persist

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/loader"
	"github.com/venusdb/sdl/pkg/vendor"
)

// ParamKey is the fixed row key the loader reads back
// (spec.md §6: `venus_core.sys_parameter` keyed by `param_key =
// "parsed_schema"`).
const ParamKey = "parsed_schema"

// Snapshot is the persisted shape of a loader.Result: the arena's
// definitions in allocation order (so DefIDs round-trip via
// ast.FromDefs) plus the two lookup indexes and the recorded main
// sources.
type Snapshot struct {
	Defs        []*ast.Definition
	ByPackage   map[string]ast.DefID
	BySource    map[string]ast.DefID
	MainSources []string
}

// FromResult captures a loader.Result into its persisted shape.
func FromResult(r *loader.Result) *Snapshot {
	return &Snapshot{
		Defs:        r.Arena.Defs(),
		ByPackage:   r.ByPackage,
		BySource:    r.BySource,
		MainSources: r.MainSources,
	}
}

// Result reconstitutes a loader.Result from the snapshot.
func (s *Snapshot) Result() *loader.Result {
	return &loader.Result{
		Arena:       ast.FromDefs(s.Defs),
		ByPackage:   s.ByPackage,
		BySource:    s.BySource,
		MainSources: s.MainSources,
	}
}

// Encode gob-encodes and gzip-compresses a Snapshot into a portable
// byte blob.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(s); err != nil {
		return nil, errors.Wrap(err, "failed to gob-encode snapshot")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to flush gzip writer")
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. A corrupt or truncated blob is reported as a
// structural failure (spec.md §7), not a panic.
func Decode(data []byte) (*Snapshot, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "serialized schema is corrupt: failed to open gzip stream")
	}
	defer gz.Close()

	var s Snapshot
	if err := gob.NewDecoder(gz).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "serialized schema is corrupt: failed to decode gob stream")
	}
	return &s, nil
}

// Store writes the snapshot to venus_core.sys_parameter, replacing any
// existing row under ParamKey.
func Store(ctx context.Context, adapter vendor.Adapter, s *Snapshot) error {
	blob, err := Encode(s)
	if err != nil {
		return err
	}
	stmt := upsertStatement(blob)
	return errors.Wrap(adapter.Exec(ctx, stmt), "failed to persist parsed schema")
}

// Load reads and decodes the snapshot from venus_core.sys_parameter.
func Load(ctx context.Context, adapter vendor.Adapter) (*Snapshot, error) {
	rows, err := adapter.Query(ctx, selectStatement())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parsed schema row")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.Errorf("no %q row found in venus_core.sys_parameter", ParamKey)
	}
	var blob []byte
	if err := rows.Scan(&blob); err != nil {
		return nil, errors.Wrap(err, "failed to scan parsed schema row")
	}
	return Decode(blob)
}
