package edgegrid

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for locating credentials.
const (
	DefaultSection = "default"
	defaultEdgerc  = ".edgerc"

	// DefaultMaxBody is the number of body bytes covered by the content hash.
	DefaultMaxBody = 131072
)

// .edgerc keys.
const (
	keyHost         = "host"
	keyClientToken  = "client_token"
	keyClientSecret = "client_secret"
	keyAccessToken  = "access_token"
	keyMaxBody      = "max_body"
)

// Credentials holds one EdgeGrid client credential set.
type Credentials struct {
	Host         string
	ClientToken  string
	ClientSecret string
	AccessToken  string
	MaxBody      int
}

// Validate reports the first missing required field.
func (c Credentials) Validate() error {
	missing := []struct{ key, val string }{
		{keyHost, c.Host},
		{keyClientToken, c.ClientToken},
		{keyClientSecret, c.ClientSecret},
		{keyAccessToken, c.AccessToken},
	}
	for _, m := range missing {
		if m.val == "" {
			return fmt.Errorf("%s not set: %w", m.key, ErrCredentialsMissing)
		}
	}
	return nil
}

// DefaultEdgercPath returns ~/.edgerc.
func DefaultEdgercPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, defaultEdgerc), nil
}

// LoadEdgerc reads section from the .edgerc file at path.
// An empty path uses ~/.edgerc, an empty section uses "default".
func LoadEdgerc(path, section string) (Credentials, error) {
	if path == "" {
		p, err := DefaultEdgercPath()
		if err != nil {
			return Credentials{}, err
		}
		path = p
	}
	if section == "" {
		section = DefaultSection
	}

	sections, err := parseEdgerc(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("edgerc file %s: %w", path, ErrCredentialsMissing)
		}
		return Credentials{}, err
	}

	values, ok := sections[section]
	if !ok {
		return Credentials{}, fmt.Errorf("section [%s] not found in %s: %w", section, path, ErrCredentialsMissing)
	}

	creds := Credentials{
		Host:         values[keyHost],
		ClientToken:  values[keyClientToken],
		ClientSecret: values[keyClientSecret],
		AccessToken:  values[keyAccessToken],
		MaxBody:      DefaultMaxBody,
	}
	if raw := values[keyMaxBody]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Credentials{}, fmt.Errorf("invalid %s %q in section [%s]", keyMaxBody, raw, section)
		}
		creds.MaxBody = n
	}

	if err := creds.Validate(); err != nil {
		return Credentials{}, fmt.Errorf("section [%s]: %w", section, err)
	}
	return creds, nil
}

// parseEdgerc reads an INI file into section -> key -> value.
// Format: [section] headers, key = value lines, # or ; comments.
// Surrounding quotes on values are removed.
func parseEdgerc(p string) (map[string]map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- credentials path is user-provided
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sections := make(map[string]map[string]string)
	var current map[string]string
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			current = make(map[string]string)
			sections[name] = current
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		if current == nil {
			return nil, fmt.Errorf("key outside of a section at line %d", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		current[key] = unquote(strings.TrimSpace(parts[1]))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edgerc: %w", err)
	}

	return sections, nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
