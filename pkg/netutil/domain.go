package netutil

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

const maxDomainNameSize = 253

// ValidateHost validates the value as an IP address or a domain name.
func ValidateHost(value string) error {
	if len(value) == 0 {
		return errors.New("host is empty")
	}
	if net.ParseIP(value) != nil {
		return nil
	}
	if len(value) > maxDomainNameSize {
		return errors.New("domain name length exceeds limit")
	}
	if _, err := idna.Lookup.ToASCII(value); err != nil {
		return errors.Wrap(err, "domain name is invalid")
	}
	return nil
}
