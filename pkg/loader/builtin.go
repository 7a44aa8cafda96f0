package loader

import "embed"

//go:embed schemas/core.sdl
var builtinFS embed.FS

// builtinSource is the pseudo-path used to key the core schema in a
// LoadResult; it never resolves to a filesystem path.
const builtinSource = "<builtin>/core.sdl"

const builtinPackage = "venus_core"
