package edgegrid_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-edgecli/internal/edgegrid"
)

const sampleEdgerc = `# EdgeGrid credentials
[default]
host = akab-default.luna.akamaiapis.net
client_token = akab-ct
client_secret = "s3cret="
access_token = akab-at

[kv]
host = akab-kv.luna.akamaiapis.net
client_token = akab-kv-ct
client_secret = kv-secret
access_token = akab-kv-at
max_body = 2048

[broken]
host = akab-broken.luna.akamaiapis.net
`

func writeEdgerc(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), ".edgerc")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

// ---------------------------------------------------------------------------
// TestLoadEdgerc
// ---------------------------------------------------------------------------

func TestLoadEdgerc(t *testing.T) {
	t.Parallel()

	p := writeEdgerc(t, sampleEdgerc)

	t.Run("default section", func(t *testing.T) {
		t.Parallel()

		creds, err := edgegrid.LoadEdgerc(p, "")
		require.NoError(t, err)
		assert.Equal(t, edgegrid.Credentials{
			Host:         "akab-default.luna.akamaiapis.net",
			ClientToken:  "akab-ct",
			ClientSecret: "s3cret=",
			AccessToken:  "akab-at",
			MaxBody:      edgegrid.DefaultMaxBody,
		}, creds)
	})

	t.Run("named section with max body", func(t *testing.T) {
		t.Parallel()

		creds, err := edgegrid.LoadEdgerc(p, "kv")
		require.NoError(t, err)
		assert.Equal(t, "akab-kv-ct", creds.ClientToken)
		assert.Equal(t, 2048, creds.MaxBody)
	})

	t.Run("unknown section", func(t *testing.T) {
		t.Parallel()

		_, err := edgegrid.LoadEdgerc(p, "nope")
		require.ErrorIs(t, err, edgegrid.ErrCredentialsMissing)
		assert.Contains(t, err.Error(), "[nope]")
	})

	t.Run("incomplete section", func(t *testing.T) {
		t.Parallel()

		_, err := edgegrid.LoadEdgerc(p, "broken")
		require.ErrorIs(t, err, edgegrid.ErrCredentialsMissing)
		assert.Contains(t, err.Error(), "client_token")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := edgegrid.LoadEdgerc(filepath.Join(t.TempDir(), "absent"), "")
		require.ErrorIs(t, err, edgegrid.ErrCredentialsMissing)
	})
}

func TestParseEdgerc(t *testing.T) {
	t.Parallel()

	t.Run("key outside section", func(t *testing.T) {
		t.Parallel()

		_, err := edgegrid.ParseEdgerc(writeEdgerc(t, "host = x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside of a section")
	})

	t.Run("invalid syntax", func(t *testing.T) {
		t.Parallel()

		_, err := edgegrid.ParseEdgerc(writeEdgerc(t, "[default]\nno equals sign\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("comments and blank lines", func(t *testing.T) {
		t.Parallel()

		sections, err := edgegrid.ParseEdgerc(writeEdgerc(t, "; comment\n\n[a]\n# c\nk = 'v'\n"))
		require.NoError(t, err)
		assert.Equal(t, map[string]map[string]string{"a": {"k": "v"}}, sections)
	})
}
