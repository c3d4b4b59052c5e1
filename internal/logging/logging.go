// Package logging builds the zerolog loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// New returns a console logger writing to w at the named level.
// An empty level uses DefaultLevel.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := DefaultLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
