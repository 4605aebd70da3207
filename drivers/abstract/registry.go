package abstract

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
)

var (
	registryMu         sync.RWMutex
	RegisteredDialects = map[string]Dialect{}
)

// Register makes a dialect available by name and by url scheme. Dialect
// packages call it from init.
func Register(dialect Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	RegisteredDialects[dialect.Name()] = dialect
}

// Dialects returns the names of all registered dialects, sorted.
func Dialects() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return dialectNames()
}

// Lookup resolves the dialect for cfg: the explicit driver wins, otherwise the
// url scheme decides. A leading "jdbc:" is ignored.
func Lookup(cfg types.ConnectionConfig) (Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if cfg.Driver != "" {
		dialect, found := RegisteredDialects[strings.ToLower(cfg.Driver)]
		if !found {
			return nil, fmt.Errorf("%w: unknown %s.driver %q, registered: %s", constants.ErrConfig, cfg.Role, cfg.Driver, strings.Join(dialectNames(), ", "))
		}
		return dialect, nil
	}

	scheme := Scheme(cfg.URL)
	for _, dialect := range RegisteredDialects {
		for _, candidate := range dialect.Schemes() {
			if candidate == scheme {
				return dialect, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: cannot infer driver for %s.url with scheme %q, set %s.driver", constants.ErrConfig, cfg.Role, scheme, cfg.Role)
}

func dialectNames() []string {
	names := make([]string, 0, len(RegisteredDialects))
	for name := range RegisteredDialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scheme returns the lower cased scheme of a connection url, ignoring a "jdbc:" prefix.
func Scheme(rawURL string) string {
	trimmed := TrimJDBC(rawURL)
	idx := strings.Index(trimmed, ":")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(trimmed[:idx])
}

// TrimJDBC strips a "jdbc:" prefix from a connection url.
func TrimJDBC(rawURL string) string {
	if len(rawURL) >= 5 && strings.EqualFold(rawURL[:5], "jdbc:") {
		return rawURL[5:]
	}
	return rawURL
}

// WithCredentials puts user and password into the userinfo of rawURL unless
// the url already carries a user.
func WithCredentials(rawURL, user, password string) (string, error) {
	parsed, err := url.Parse(TrimJDBC(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse connection url: %s", err)
	}
	if user != "" && parsed.User == nil {
		parsed.User = url.UserPassword(user, password)
	}
	return parsed.String(), nil
}
