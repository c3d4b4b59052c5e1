package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Notes:
// - warnExtensionMismatch is a pure function with an io.Writer dependency.
// - writeFileAtomic and emit touch the filesystem under t.TempDir().

// ---------------------------------------------------------------------------
// TestWarnExtensionMismatch - Extension warning logic
// ---------------------------------------------------------------------------

func TestWarnExtensionMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		kind        string
		wantContain string // empty means no warning
	}{
		{name: "json to json", path: "out.json", kind: "json"},
		{name: "yaml to yml", path: "out.yml", kind: "yaml"},
		{name: "uppercase extension matches", path: "OUT.YAML", kind: "yaml"},
		{name: "no extension", path: "out", kind: "json"},
		{name: "unknown extension", path: "out.txt", kind: "yaml"},
		{name: "json kind yaml extension", path: "out.yaml", kind: "json", wantContain: "JSON regardless of .yaml"},
		{name: "yaml kind json extension", path: "/tmp/out.json", kind: "yaml", wantContain: "YAML regardless of .json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			warnExtensionMismatch(&buf, tt.path, tt.kind)

			got := buf.String()
			if tt.wantContain == "" {
				if got != "" {
					t.Errorf("warnExtensionMismatch(%q, %q) = %q, want no warning", tt.path, tt.kind, got)
				}
				return
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("warnExtensionMismatch(%q, %q) = %q, want containing %q", tt.path, tt.kind, got, tt.wantContain)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - No-overwrite file creation
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.json")

		if err := writeFileAtomic(path, "{}\n"); err != nil {
			t.Fatalf("writeFileAtomic() error = %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != "{}\n" {
			t.Errorf("content = %q, want %q", got, "{}\n")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.json")
		if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		err := writeFileAtomic(path, "new")
		if !errors.Is(err, ErrOutputExists) {
			t.Errorf("writeFileAtomic() error = %v, want ErrOutputExists", err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "original" {
			t.Errorf("content = %q, want original preserved", got)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing", "out.json")
		if err := writeFileAtomic(path, "x"); err == nil {
			t.Error("writeFileAtomic() = nil, want error")
		}
	})
}

// ---------------------------------------------------------------------------
// TestEmit - stdout vs file output
// ---------------------------------------------------------------------------

func TestEmit(t *testing.T) {
	t.Parallel()

	render := func(w io.Writer) error {
		_, err := io.WriteString(w, "body\n")
		return err
	}

	t.Run("stdout when no output", func(t *testing.T) {
		t.Parallel()
		env, mocks := testEnv()
		if err := emit(env, "", "json", render); err != nil {
			t.Fatalf("emit() error = %v", err)
		}
		if got := mocks.stdout.String(); got != "body\n" {
			t.Errorf("stdout = %q, want %q", got, "body\n")
		}
	})

	t.Run("file when output set", func(t *testing.T) {
		t.Parallel()
		env, mocks := testEnv()
		path := filepath.Join(t.TempDir(), "out.yaml")

		if err := emit(env, path, "json", render); err != nil {
			t.Fatalf("emit() error = %v", err)
		}
		if got := mocks.stdout.String(); got != "" {
			t.Errorf("stdout = %q, want empty", got)
		}
		stderr := mocks.stderr.String()
		if !strings.Contains(stderr, "Wrote "+path) {
			t.Errorf("stderr = %q, want confirmation", stderr)
		}
		if !strings.Contains(stderr, "Warning: output is JSON") {
			t.Errorf("stderr = %q, want extension warning", stderr)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "body\n" {
			t.Errorf("file = %q, want %q", got, "body\n")
		}
	})

	t.Run("render error writes no file", func(t *testing.T) {
		t.Parallel()
		env, _ := testEnv()
		path := filepath.Join(t.TempDir(), "out.json")
		boom := errors.New("boom")

		err := emit(env, path, "json", func(io.Writer) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("emit() error = %v, want boom", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("output file exists after render error")
		}
	})
}

func TestRunGet_OutputFile(t *testing.T) {
	t.Parallel()

	env, mocks := testEnv(withRespond(jsonResponse(http.StatusOK, `{"a":1}`)))
	path := filepath.Join(t.TempDir(), "ids.json")

	if err := RunGet(context.Background(), env, &Globals{Output: path}, []string{"/edgeworkers/v1/ids"}, ""); err != nil {
		t.Fatalf("RunGet() error = %v", err)
	}
	if got := mocks.stdout.String(); got != "" {
		t.Errorf("stdout = %q, want empty", got)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "{\n  \"a\": 1\n}\n" {
		t.Errorf("file = %q", got)
	}
}
