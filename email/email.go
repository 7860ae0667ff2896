package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ptgott/one-mail/mailerr"
	"github.com/ptgott/one-mail/message"
	"github.com/ptgott/one-mail/settings"
)

// Sender delivers messages through a Transport using the connection
// settings it's given on each call. It holds no connection state of its
// own, so a Sender can be shared between goroutines as long as its
// Transport can.
type Sender struct {
	transport Transport
	log       zerolog.Logger
	tlsConfig *tls.Config
}

// Option configures a Sender
type Option func(*Sender)

// WithLogger makes the Sender emit debug events to l. Without it the Sender
// doesn't log at all.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sender) {
		s.log = l
	}
}

// WithTLSConfig sets the TLS configuration passed to the transport for SSL
// and STARTTLS connections, e.g. to trust a private CA.
func WithTLSConfig(c *tls.Config) Option {
	return func(s *Sender) {
		s.tlsConfig = c
	}
}

// NewSender returns a Sender that hands messages to t.
func NewSender(t Transport, opts ...Option) (*Sender, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", mailerr.ErrInvalidArgument)
	}
	s := &Sender{
		transport: t,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// properties reads v into the session parameters a Transport expects
func (s *Sender) properties(v settings.Values) Properties {
	return Properties{
		Host:      v.Server,
		Port:      v.Port,
		Auth:      v.AuthenticationEnabled,
		Security:  v.SecurityType,
		TLSConfig: s.tlsConfig,
	}
}

// credentials returns nil when authentication is disabled, so transports
// never see a username or password they aren't meant to use.
func credentials(v settings.Values) Credentials {
	if !v.AuthenticationEnabled {
		return nil
	}
	u, p := v.Username, v.Password
	return func() (string, settings.Secret) {
		return u, p
	}
}

// Send delivers m using conf. The settings are read once, up front, so
// changes made to conf while Send is running don't affect it. A failure
// inside the transport is returned wrapped in mailerr.ErrTransport, with the
// transport's own error still reachable through errors.Is and errors.As.
// Send never retries.
func (s *Sender) Send(ctx context.Context, m *message.Message, conf *settings.ConnectionSettings) error {
	if m == nil {
		return fmt.Errorf("%w: nil message", mailerr.ErrInvalidArgument)
	}
	if conf == nil {
		return fmt.Errorf("%w: nil connection settings", mailerr.ErrInvalidArgument)
	}

	v := conf.Values()
	props := s.properties(v)

	s.log.Debug().
		Str("addr", props.Addr()).
		Str("security", props.Security.String()).
		Bool("auth", props.Auth).
		Str("from", m.Sender().Addr()).
		Int("recipients", len(m.Recipients())).
		Msg("sending a message")

	sess, err := s.transport.CreateSession(props, credentials(v))
	if err != nil {
		return transportError("can't create a session", err)
	}

	if err := s.transport.Transmit(ctx, sess, m); err != nil {
		s.log.Debug().Err(err).Str("addr", props.Addr()).Msg("the transport refused the message")
		return transportError("can't transmit the message", err)
	}

	s.log.Debug().Str("addr", props.Addr()).Msg("the message was accepted")
	return nil
}

// transportError tags err as a transport failure unless the transport
// already did.
func transportError(msg string, err error) error {
	if errors.Is(err, mailerr.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %v: %w", mailerr.ErrTransport, msg, err)
}
