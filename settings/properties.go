package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ptgott/one-mail/mailerr"
)

// Property keys read by FromProperties. Any other key is ignored.
const (
	KeyServer   = "server"
	KeyAuth     = "auth"
	KeyUsername = "username"
	KeyPassword = "password"
	KeySecurity = "security"
	KeyPort     = "port"
)

// lookup returns the value for key and whether it was there at all. A key
// that is present but blank is an error.
func lookup(props map[string]string, key string) (string, bool, error) {
	v, ok := props[key]
	if !ok {
		return "", false, nil
	}
	if strings.TrimSpace(v) == "" {
		return "", true, fmt.Errorf("%w: empty value for property %q", mailerr.ErrInvalidArgument, key)
	}
	return v, true, nil
}

// FromProperties returns ConnectionSettings read from a flat property map.
// Absent keys keep their defaults. A key that is present must hold a valid
// value; the error names the key and, when it could be read, the bad value.
// Nothing is returned unless every key checks out.
func FromProperties(props map[string]string) (*ConnectionSettings, error) {
	v := defaults()

	if s, ok, err := lookup(props, KeyServer); err != nil {
		return nil, err
	} else if ok {
		v.Server = strings.TrimSpace(s)
	}

	if s, ok, err := lookup(props, KeyAuth); err != nil {
		return nil, err
	} else if ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf(
				"%w: property %q must be true or false, got %q",
				mailerr.ErrInvalidArgument,
				KeyAuth,
				s,
			)
		}
		v.AuthenticationEnabled = b
	}

	if s, ok, err := lookup(props, KeyUsername); err != nil {
		return nil, err
	} else if ok {
		v.Username = s
	}

	if s, ok, err := lookup(props, KeyPassword); err != nil {
		return nil, err
	} else if ok {
		v.Password = Secret(s)
	}

	if s, ok, err := lookup(props, KeySecurity); err != nil {
		return nil, err
	} else if ok {
		st, err := ParseSecurityType(s)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", KeySecurity, err)
		}
		v.SecurityType = st
	}

	if s, ok, err := lookup(props, KeyPort); err != nil {
		return nil, err
	} else if ok {
		p, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf(
				"%w: property %q must be an integer, got %q",
				mailerr.ErrInvalidArgument,
				KeyPort,
				s,
			)
		}
		if p < MinPort || p > MaxPort {
			return nil, fmt.Errorf(
				"%w: property %q is out of range [%d, %d]: %d",
				mailerr.ErrInvalidArgument,
				KeyPort,
				MinPort,
				MaxPort,
				p,
			)
		}
		v.Port = p
	}

	return &ConnectionSettings{v: v}, nil
}

// Properties returns the settings as a property map that FromProperties
// reads back into equal settings. The password is included in the clear.
func (c *ConnectionSettings) Properties() map[string]string {
	v := c.Values()
	p := map[string]string{
		KeyServer:   v.Server,
		KeyAuth:     strconv.FormatBool(v.AuthenticationEnabled),
		KeySecurity: v.SecurityType.String(),
		KeyPort:     strconv.Itoa(v.Port),
	}
	// Blank values don't survive FromProperties, and leaving them out
	// gives the same defaults
	if v.Username != "" {
		p[KeyUsername] = v.Username
	}
	if v.Password != "" {
		p[KeyPassword] = v.Password.Reveal()
	}
	return p
}
