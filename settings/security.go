package settings

import (
	"fmt"
	"strings"

	"github.com/ptgott/one-mail/mailerr"
)

// SecurityType is the transport security used for the SMTP connection
type SecurityType int

const (
	// SecurityNone sends everything in plain text
	SecurityNone SecurityType = iota
	// SecuritySSL wraps the connection in TLS from the first byte
	// (implicit TLS, usually port 465)
	SecuritySSL
	// SecurityTLS connects in plain text and upgrades with STARTTLS before
	// anything else is sent. The upgrade is mandatory.
	SecurityTLS
)

var securityNames = map[SecurityType]string{
	SecurityNone: "NONE",
	SecuritySSL:  "SSL",
	SecurityTLS:  "TLS",
}

func (s SecurityType) String() string {
	if n, ok := securityNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SecurityType(%d)", int(s))
}

func (s SecurityType) valid() bool {
	_, ok := securityNames[s]
	return ok
}

// ParseSecurityType looks up a security type by name, ignoring case and
// surrounding whitespace: "none", "ssl" or "tls".
func ParseSecurityType(name string) (SecurityType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for st, sn := range securityNames {
		if sn == n {
			return st, nil
		}
	}
	return SecurityNone, fmt.Errorf("%w: unknown security type %q", mailerr.ErrInvalidArgument, name)
}
