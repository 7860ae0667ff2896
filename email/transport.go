package email

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/ptgott/one-mail/message"
	"github.com/ptgott/one-mail/settings"
)

// Properties are the session parameters a Transport needs in order to reach
// a server. They're derived from ConnectionSettings by Sender.
type Properties struct {
	Host     string
	Port     int
	Auth     bool
	Security settings.SecurityType
	// TLSConfig is used for SSL and STARTTLS. When nil, the system roots
	// are used with Host as the server name.
	TLSConfig *tls.Config
}

// Addr returns host:port
func (p Properties) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Credentials supplies a username and password when a transport needs to
// authenticate. A nil Credentials means authentication is disabled.
type Credentials func() (username string, password settings.Secret)

// Session carries everything a Transport needs to transmit one or more
// messages. Get one from Transport.CreateSession.
type Session struct {
	props Properties
	creds Credentials
}

// NewSession is for Transport implementations. Callers go through
// Transport.CreateSession.
func NewSession(props Properties, creds Credentials) *Session {
	return &Session{
		props: props,
		creds: creds,
	}
}

func (s *Session) Properties() Properties { return s.props }

// Credentials returns nil unless authentication is enabled
func (s *Session) Credentials() Credentials { return s.creds }

// Transport is the mail-transport collaborator. Implementations turn a
// Message into their own wire form and deliver it. Errors from Transmit are
// passed to the caller as they are.
type Transport interface {
	// CreateSession validates props and creds and binds them into a
	// Session. It does not touch the network.
	CreateSession(props Properties, creds Credentials) (*Session, error)
	// Transmit delivers m using s. It blocks until the transport has
	// accepted or refused the message.
	Transmit(ctx context.Context, s *Session, m *message.Message) error
}
