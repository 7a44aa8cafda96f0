package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/parser"
)

var uriPattern = regexp.MustCompile(`^[^:]+://`)

// Result is the Parse Aggregator's output (spec.md §4.1): every loaded
// schema in a single arena, keyed both by the source that produced it
// and by declared package name, plus the sources compilation starts
// from: the built-in core schema and the sources that were passed in
// directly (as opposed to pulled in transitively by `use`).
type Result struct {
	Arena       *ast.Arena
	BySource    map[string]ast.DefID
	ByPackage   map[string]ast.DefID
	MainSources []string
}

// Load parses every schema reachable from fpaths (directly, or
// transitively through use/require), always implicitly including the
// built-in core schema, and returns the aggregated result.
func Load(fpaths []string, searchPath []string) (*Result, error) {
	r := &Result{
		Arena:     ast.NewArena(),
		BySource:  map[string]ast.DefID{},
		ByPackage: map[string]ast.DefID{},
	}

	mainSources := make([]string, 0, len(fpaths)+1)
	mainSources = append(mainSources, builtinSource)
	for _, fp := range fpaths {
		src, err := toSource(fp)
		if err != nil {
			return nil, err
		}
		mainSources = append(mainSources, src)
	}
	r.MainSources = mainSources

	type pending struct {
		source     string
		searchPath []string
	}

	queue := make([]pending, 0, len(mainSources))
	for _, src := range mainSources {
		queue = append(queue, pending{source: src, searchPath: searchPath})
	}

	// useSource records, for every *ast.Use encountered, which source
	// key it resolved to, using the including file's own directory
	// appended to the search path (mirroring the original's per-file
	// augmented search path).
	useSource := map[*ast.Use]string{}

	type loaded struct {
		id     ast.DefID
		uses   []*ast.Use
		source string
	}
	var newlyLoaded []loaded

	for len(queue) > 0 {
		next := queue
		queue = nil
		for _, p := range next {
			if _, ok := r.BySource[p.source]; ok {
				continue
			}
			data, err := readSource(p.source)
			if err != nil {
				return nil, err
			}
			f, err := parser.ParseString(p.source, data)
			if err != nil {
				return nil, &ParseError{Source: p.source, Err: err}
			}
			id, err := parser.Build(r.Arena, f, data)
			if err != nil {
				return nil, &ParseError{Source: p.source, Err: err}
			}
			r.BySource[p.source] = id
			newlyLoaded = append(newlyLoaded, loaded{id: id, uses: r.Arena.Get(id).Imports, source: p.source})
		}

		var nextQueue []pending
		for _, l := range newlyLoaded {
			dir := filepath.Dir(l.source)
			augmented := append(append([]string{}, searchPath...), dir)
			for _, use := range l.uses {
				src, err := locate(use.Schema, augmented)
				if err != nil {
					return nil, errors.Wrapf(err, "%s: resolving use of %s", l.source, use.Schema)
				}
				useSource[use] = src
				if _, ok := r.BySource[src]; !ok {
					nextQueue = append(nextQueue, pending{source: src, searchPath: searchPath})
				}
			}
		}
		newlyLoaded = nil
		queue = nextQueue
	}

	resolveUses(r, useSource)
	if err := validatePackages(r); err != nil {
		return nil, err
	}
	return r, nil
}

// toSource converts a caller-supplied file path or URI into the
// canonical source key used in Result.BySource: URIs pass through
// unchanged, local paths are made absolute.
func toSource(fpath string) (string, error) {
	if uriPattern.MatchString(fpath) {
		return fpath, nil
	}
	abs, err := filepath.Abs(fpath)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", fpath)
	}
	return abs, nil
}

// locate resolves a dotted `use`/`require` target (or a URI string) to
// a source key, searching searchPath in order.
func locate(name string, searchPath []string) (string, error) {
	if uriPattern.MatchString(name) {
		return name, nil
	}
	if name == builtinPackage {
		return builtinSource, nil
	}
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".sdl"
	for _, dir := range searchPath {
		fpath := filepath.Join(dir, rel)
		if _, err := os.Stat(fpath); err == nil {
			abs, err := filepath.Abs(fpath)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", &SchemaLocationError{Name: name, SearchPath: searchPath}
}

func readSource(source string) (string, error) {
	if source == builtinSource {
		data, err := fs.ReadFile(builtinFS, "schemas/core.sdl")
		if err != nil {
			return "", errors.Wrap(err, "reading built-in core schema")
		}
		return string(data), nil
	}
	if uriPattern.MatchString(source) {
		return "", errors.Errorf("%s: remote schema sources are not fetched by this build", source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", source)
	}
	return string(data), nil
}

// resolveUses fills in Use.Resolved from the source keys recorded
// during the worklist pass.
func resolveUses(r *Result, useSource map[*ast.Use]string) {
	for _, id := range r.BySource {
		schema := r.Arena.Get(id)
		for _, use := range schema.Imports {
			if src, ok := useSource[use]; ok {
				if targetID, ok := r.BySource[src]; ok {
					use.Resolved = targetID
				}
			}
		}
	}
}

func validatePackages(r *Result) error {
	sourceByID := map[ast.DefID]string{}
	for src, id := range r.BySource {
		sourceByID[id] = src
	}

	for _, id := range r.BySource {
		schema := r.Arena.Get(id)
		for _, use := range schema.Imports {
			if use.Resolved == ast.NoDef {
				continue
			}
			target := r.Arena.Get(use.Resolved)
			if use.Schema != target.PackageName {
				return &PackageMismatchError{
					Pos:      use.Pos,
					Declared: use.Schema,
					Actual:   target.PackageName,
					Source:   sourceByID[use.Resolved],
				}
			}
		}
	}

	byPackage := map[string][]ast.DefID{}
	for _, id := range r.BySource {
		schema := r.Arena.Get(id)
		byPackage[schema.PackageName] = append(byPackage[schema.PackageName], id)
	}
	var dupPackages []string
	for name := range byPackage {
		if len(byPackage[name]) > 1 {
			dupPackages = append(dupPackages, name)
		}
	}
	sort.Strings(dupPackages)
	if len(dupPackages) > 0 {
		name := dupPackages[0]
		ids := byPackage[name]
		first := r.Arena.Get(ids[0])
		var sources []string
		for _, id := range ids {
			sources = append(sources, sourceByID[id])
		}
		sort.Strings(sources)
		return &DuplicatePackageError{Pos: first.Pos, Package: name, Sources: sources}
	}

	r.ByPackage = map[string]ast.DefID{}
	for name, ids := range byPackage {
		r.ByPackage[name] = ids[0]
	}
	return nil
}
