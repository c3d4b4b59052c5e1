package cli

import (
	"time"

	"github.com/alnah/go-edgecli/internal/config"
)

// Export internal functions for testing.

// RunGet exports runGet for testing.
var RunGet = runGet

// RunSend exports runSend for testing.
var RunSend = runSend

// SendOptions exports sendOptions for testing.
type SendOptions = sendOptions

// NewSendOptions builds a SendOptions for tests outside the package.
func NewSendOptions(method, path string, body any, metricType string) SendOptions {
	return sendOptions{method: method, path: path, body: body, metricType: metricType}
}

// ReadData exports readData for testing.
var ReadData = readData

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ResolvedSettings is settings with exported fields for assertions.
type ResolvedSettings struct {
	Edgerc     string
	Section    string
	AccountKey string
	Timeout    time.Duration
	Format     string
	LogLevel   string
}

// ResolveSettings exports resolveSettings for testing.
func ResolveSettings(g *Globals, cfg config.Config) (ResolvedSettings, error) {
	s, err := resolveSettings(g, cfg)
	return ResolvedSettings{
		Edgerc:     s.edgerc,
		Section:    s.section,
		AccountKey: s.accountKey,
		Timeout:    s.timeout,
		Format:     s.format,
		LogLevel:   s.logLevel,
	}, err
}
