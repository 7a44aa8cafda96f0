package parser

import (
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// sdlParser is the participle parser instance for SDL source files.
var sdlParser = participle.MustBuild[File](
	participle.Lexer(sdlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.CaseInsensitive(sdlKeywords...),
	participle.UseLookahead(2),
)

// ParseString parses SDL source held in memory. filename is used only
// for position reporting in the returned File/error.
func ParseString(filename, src string) (*File, error) {
	f, err := sdlParser.ParseString(filename, src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}
	return f, nil
}

// ParseFile reads and parses a single SDL source file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ParseString(path, string(data))
}
