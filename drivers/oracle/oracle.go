// Package oracle registers the Oracle dialect, backed by the pure Go go-ora driver.
package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datazip-inc/rowsync/drivers/abstract"
	"github.com/datazip-inc/rowsync/types"
	"github.com/jmoiron/sqlx"
	goora "github.com/sijms/go-ora/v2"
)

const defaultPort = 1521

type Oracle struct{}

func (Oracle) Name() string { return "oracle" }

func (Oracle) DriverName() string { return "oracle" }

func (Oracle) Schemes() []string { return []string{"oracle"} }

// DSN accepts oracle://host:port/service urls and the thin jdbc forms
// jdbc:oracle:thin:@host:port/service, jdbc:oracle:thin:@//host:port/service
// and jdbc:oracle:thin:@host:port:SID.
func (Oracle) DSN(cfg types.ConnectionConfig) (string, error) {
	raw := abstract.TrimJDBC(cfg.URL)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "oracle:thin:") {
		return abstract.WithCredentials(raw, cfg.User, cfg.Password)
	}

	_, address, found := strings.Cut(raw, "@")
	if !found {
		return "", fmt.Errorf("oracle thin url must contain '@': %s", cfg.URL)
	}
	address = strings.TrimPrefix(address, "//")

	hostPort, service, _ := strings.Cut(address, "/")
	segments := strings.Split(hostPort, ":")
	host := segments[0]
	port := defaultPort
	if len(segments) > 1 && segments[1] != "" {
		parsed, err := strconv.Atoi(segments[1])
		if err != nil {
			return "", fmt.Errorf("invalid oracle port %q: %s", segments[1], err)
		}
		port = parsed
	}

	options := map[string]string{}
	if service == "" && len(segments) > 2 {
		options["SID"] = segments[2]
	}
	if host == "" {
		return "", fmt.Errorf("oracle url has no host: %s", cfg.URL)
	}
	return goora.BuildUrl(host, port, service, cfg.User, cfg.Password, options), nil
}

func (Oracle) BindType() int { return sqlx.NAMED }

func (Oracle) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func init() {
	abstract.Register(Oracle{})
}
