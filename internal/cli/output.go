package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-edgecli/internal/format"
)

// extensionKinds maps output file extensions to the format they suggest.
var extensionKinds = map[string]string{
	".json": format.KindJSON,
	".yaml": format.KindYAML,
	".yml":  format.KindYAML,
}

// warnExtensionMismatch writes a warning to w if path has an extension
// suggesting a different format than kind.
func warnExtensionMismatch(w io.Writer, path, kind string) {
	ext := strings.ToLower(filepath.Ext(path))
	if suggested, ok := extensionKinds[ext]; ok && suggested != kind {
		_, _ = fmt.Fprintf(w, "Warning: output is %s regardless of %s extension\n", strings.ToUpper(kind), ext)
	}
}

// emit runs render against stdout, or against output when set.
// A file output is written atomically and never overwrites.
func emit(env *Env, output, kind string, render func(w io.Writer) error) error {
	if output == "" {
		return render(env.Stdout)
	}

	warnExtensionMismatch(env.Stderr, output, kind)

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := writeFileAtomic(output, buf.String()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Wrote %s\n", output)
	return nil
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
