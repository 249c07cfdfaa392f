package netutil

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeRPCEndpoint validates an HTTP RPC endpoint and returns it with an
// explicit scheme. A missing scheme defaults to http. No network access is
// performed.
func NormalizeRPCEndpoint(value string, requireSecureConnection bool) (string, error) {
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", errors.Wrap(err, "invalid url")
	}
	if len(parsed.Host) == 0 {
		return "", errors.New("host component missing")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if requireSecureConnection && parsed.Scheme != "https" {
		return "", errors.New("url scheme must be https")
	}

	if err := ValidateHost(parsed.Hostname()); err != nil {
		return "", errors.Wrap(err, "invalid host")
	}
	if port := parsed.Port(); len(port) > 0 {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return "", errors.Errorf("invalid port %q", port)
		}
	}

	return parsed.String(), nil
}
