package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultVendor is the database driver used when a project's config
	// doesn't specify one.
	DefaultVendor = "postgres"

	// DefaultEntrypoint is the top-level schema file used when none is
	// specified.
	DefaultEntrypoint = "db/main.sdl"

	// DefaultMigrationsDir is the directory upgrade plans are written to
	// when none is specified.
	DefaultMigrationsDir = "db/migrations"

	// DefaultMaxConns is the connection pool size used when none is
	// specified.
	DefaultMaxConns = 10

	// DefaultMaxAgeSeconds is how long an idle pooled connection lives
	// before the reaper closes it, used when a config doesn't set
	// vendor.max_age.
	DefaultMaxAgeSeconds = 300
)
