package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/ptgott/one-mail/mailerr"
	"github.com/ptgott/one-mail/message"
	"github.com/ptgott/one-mail/settings"
)

// defaultLocalName is what we introduce ourselves as in EHLO
const defaultLocalName = "localhost"

// SMTPTransport implements Transport by speaking SMTP to a relay with
// emersion/go-smtp. Each Transmit opens and closes its own connection.
type SMTPTransport struct {
	// LocalName is sent with EHLO. Defaults to "localhost".
	LocalName string
}

// NewSMTPTransport returns an SMTPTransport with default settings
func NewSMTPTransport() *SMTPTransport {
	return &SMTPTransport{
		LocalName: defaultLocalName,
	}
}

// CreateSession implements Transport.
func (t *SMTPTransport) CreateSession(props Properties, creds Credentials) (*Session, error) {
	if strings.TrimSpace(props.Host) == "" {
		return nil, fmt.Errorf("%w: no SMTP host", mailerr.ErrInvalidArgument)
	}
	if props.Port <= 0 || props.Port > 65535 {
		return nil, fmt.Errorf("%w: can't dial port %d", mailerr.ErrInvalidArgument, props.Port)
	}
	if props.Auth && creds == nil {
		return nil, fmt.Errorf("%w: authentication is enabled but no credentials were supplied", mailerr.ErrInvalidArgument)
	}
	switch props.Security {
	case settings.SecurityNone, settings.SecuritySSL, settings.SecurityTLS:
	default:
		return nil, fmt.Errorf("%w: unsupported security type %v", mailerr.ErrInvalidArgument, props.Security)
	}
	return NewSession(props, creds), nil
}

// tlsConfig returns a config for props with ServerName filled in
func tlsConfig(props Properties) *tls.Config {
	var c *tls.Config
	if props.TLSConfig != nil {
		c = props.TLSConfig.Clone()
	} else {
		c = &tls.Config{}
	}
	if c.ServerName == "" {
		c.ServerName = props.Host
	}
	return c
}

// dial connects to the server, wrapping the connection in TLS straight
// away for SecuritySSL.
func (t *SMTPTransport) dial(ctx context.Context, props Properties) (net.Conn, error) {
	if props.Security == settings.SecuritySSL {
		d := tls.Dialer{Config: tlsConfig(props)}
		return d.DialContext(ctx, "tcp", props.Addr())
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", props.Addr())
}

// Transmit implements Transport. It connects, upgrades with STARTTLS when
// the session asks for TLS, authenticates with PLAIN when the session has
// credentials, then sends the envelope and the materialized message.
func (t *SMTPTransport) Transmit(ctx context.Context, s *Session, m *message.Message) error {
	if s == nil || m == nil {
		return fmt.Errorf("%w: nil session or message", mailerr.ErrInvalidArgument)
	}
	props := s.Properties()

	conn, err := t.dial(ctx, props)
	if err != nil {
		return fmt.Errorf("can't connect to %v: %w", props.Addr(), err)
	}

	// The SMTP exchange itself doesn't take a context, so closing the
	// connection is how cancellation reaches it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			conn.Close()
			return err
		}
	}

	c, err := smtp.NewClient(conn, props.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("can't start an SMTP session with %v: %w", props.Addr(), err)
	}
	defer c.Close()

	ln := t.LocalName
	if ln == "" {
		ln = defaultLocalName
	}
	if err := c.Hello(ln); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if props.Security == settings.SecurityTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("the server doesn't offer STARTTLS, which is required")
		}
		if err := c.StartTLS(tlsConfig(props)); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if creds := s.Credentials(); creds != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("the server doesn't offer AUTH, which is required")
		}
		u, p := creds()
		if err := c.Auth(sasl.NewPlainClient("", u, p.Reveal())); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := c.Mail(m.Sender().Addr(), nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, r := range m.Recipients() {
		if err := c.Rcpt(r.Addr()); err != nil {
			return fmt.Errorf("RCPT TO %v failed: %w", r.Addr(), err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := m.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("can't write the message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("the server didn't accept the message: %w", err)
	}

	return c.Quit()
}
