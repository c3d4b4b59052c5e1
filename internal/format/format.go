package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output kinds accepted by Render.
const (
	KindJSON = "json"
	KindYAML = "yaml"
)

// JSON renders v as 2-space indented JSON without HTML escaping.
// Values that cannot be encoded fall back to their %v representation,
// so JSON never fails; it is used on error paths.
func JSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// YAML renders v as a YAML document.
func YAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return string(out), nil
}

// Render writes v to w in the requested kind.
// Strings are written verbatim regardless of kind. A nil value writes nothing.
func Render(w io.Writer, v any, kind string) error {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}

	switch kind {
	case "", KindJSON:
		_, err := fmt.Fprintln(w, JSON(v))
		return err
	case KindYAML:
		out, err := YAML(v)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (valid: %s, %s)", kind, KindJSON, KindYAML)
	}
}

// DurationHuman formats a duration for human display.
// Examples: "2h", "30m", "1h30m", "45s", "50ms"
func DurationHuman(d time.Duration) string {
	if d >= time.Hour {
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	if d >= time.Second {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d/time.Millisecond)
}
