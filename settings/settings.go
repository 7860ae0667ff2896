package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ptgott/one-mail/mailerr"
)

// Defaults for a ConnectionSettings that hasn't been told otherwise
const (
	DefaultServer   = "localhost"
	DefaultPort     = 25
	DefaultAuth     = false
	DefaultUsername = ""
	DefaultPassword = Secret("")
	DefaultSecurity = SecurityNone
)

// Port bounds accepted by SetPort and the "port" property
const (
	MinPort = 0
	MaxPort = 65536
)

// Secret is a string that keeps itself out of logs and formatted output.
// Call Reveal to get at the value.
type Secret string

const redacted = "********"

// Reveal returns the secret value
func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string { return `settings.Secret("` + s.String() + `")` }

// Values is a point-in-time copy of a ConnectionSettings. Unlike
// ConnectionSettings it's a plain value and can be compared with ==.
type Values struct {
	Server                string
	Port                  int
	AuthenticationEnabled bool
	Username              string
	Password              Secret
	SecurityType          SecurityType
}

// ConnectionSettings describes how to reach an SMTP server. Every method
// holds the instance's lock for its whole duration, so a ConnectionSettings
// can be read and written from several goroutines. It must not be copied
// after first use.
type ConnectionSettings struct {
	mu sync.Mutex
	v  Values
}

// New returns ConnectionSettings holding the defaults: localhost:25, no
// authentication and no transport security.
func New() *ConnectionSettings {
	return &ConnectionSettings{
		v: defaults(),
	}
}

func defaults() Values {
	return Values{
		Server:                DefaultServer,
		Port:                  DefaultPort,
		AuthenticationEnabled: DefaultAuth,
		Username:              DefaultUsername,
		Password:              DefaultPassword,
		SecurityType:          DefaultSecurity,
	}
}

// Values returns a copy of every field, taken under a single lock so the
// fields are consistent with each other.
func (c *ConnectionSettings) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *ConnectionSettings) Server() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.Server
}

// SetServer sets the host name or IP of the SMTP server, trimmed.
func (c *ConnectionSettings) SetServer(server string) error {
	s := strings.TrimSpace(server)
	if s == "" {
		return fmt.Errorf("%w: empty server", mailerr.ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Server = s
	return nil
}

func (c *ConnectionSettings) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.Port
}

// SetPort sets the server port. It must be within [MinPort, MaxPort].
func (c *ConnectionSettings) SetPort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: invalid port: %d", mailerr.ErrInvalidArgument, port)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Port = port
	return nil
}

func (c *ConnectionSettings) AuthenticationEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.AuthenticationEnabled
}

// SetAuthenticationEnabled decides whether the username and password are
// presented to the server.
func (c *ConnectionSettings) SetAuthenticationEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.AuthenticationEnabled = enabled
}

func (c *ConnectionSettings) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.Username
}

// SetUsername sets the username used when authentication is enabled. An
// empty username is allowed; some servers accept it.
func (c *ConnectionSettings) SetUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Username = username
}

func (c *ConnectionSettings) Password() Secret {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.Password
}

// SetPassword sets the password used when authentication is enabled.
func (c *ConnectionSettings) SetPassword(password Secret) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Password = password
}

func (c *ConnectionSettings) SecurityType() SecurityType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.SecurityType
}

// SetSecurityType sets the transport security mode. Values other than the
// declared SecurityType constants are refused.
func (c *ConnectionSettings) SetSecurityType(st SecurityType) error {
	if !st.valid() {
		return fmt.Errorf("%w: undefined security type %d", mailerr.ErrInvalidArgument, int(st))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.SecurityType = st
	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler. The password
// is never logged.
func (c *ConnectionSettings) MarshalZerologObject(e *zerolog.Event) {
	v := c.Values()
	e.Str("server", v.Server).
		Int("port", v.Port).
		Bool("auth", v.AuthenticationEnabled).
		Str("username", v.Username).
		Str("password", v.Password.String()).
		Str("security", v.SecurityType.String())
}
