package smtptest

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/emersion/go-smtp"
)

// maxEmailSize caps a single DATA payload. Doubtful a test will get near it,
// but we need a limit.
const maxEmailSize int64 = 10 * units.MiB

// Received is one message as the server saw it: the SMTP envelope, the
// authenticated user (if any) and the raw DATA payload.
type Received struct {
	Created  time.Time
	Username string
	From     string
	To       []string
	Body     string
}

// Options controls how an InProcessServer behaves.
type Options struct {
	// KeyPath and CertPath point to a PEM key pair. When set, the server
	// offers STARTTLS, or wraps every connection in TLS if ImplicitTLS is
	// also set.
	KeyPath     string
	CertPath    string
	ImplicitTLS bool
	// RequireAuth refuses clients that don't authenticate. Credentials must
	// then match Username and Password.
	RequireAuth bool
	Username    string
	Password    string
	// AllowInsecureAuth offers AUTH before the connection is encrypted
	AllowInsecureAuth bool
}

// Backend implements smtp.Backend. It's a thin authentication wrapper
// for an InMemoryEmailStore.
type Backend struct {
	*InMemoryEmailStore
	opts Options
}

// Login implements smtp.Backend.
func (be *Backend) Login(_ *smtp.ConnectionState, username string, password string) (smtp.Session, error) {
	if username != be.opts.Username || password != be.opts.Password {
		return nil, errors.New("invalid username or password")
	}
	return &session{store: be.InMemoryEmailStore, username: username}, nil
}

// AnonymousLogin implements smtp.Backend. Refused when the server requires
// AUTH.
func (be *Backend) AnonymousLogin(_ *smtp.ConnectionState) (smtp.Session, error) {
	if be.opts.RequireAuth {
		return nil, errors.New("authentication required")
	}
	return &session{store: be.InMemoryEmailStore}, nil
}

// session implements smtp.Session for one client connection, collecting
// the envelope until DATA arrives.
type session struct {
	store    *InMemoryEmailStore
	username string
	from     string
	to       []string
}

// Reset implements smtp.Session.
func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

// Logout implements smtp.Session. No-op here.
func (s *session) Logout() error { return nil }

// Mail implements smtp.Session.
func (s *session) Mail(from string, _ smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt implements smtp.Session.
func (s *session) Rcpt(to string) error {
	s.to = append(s.to, to)
	return nil
}

// Data implements smtp.Session. Stores the email in memory for retrieval
// at the end of the test.
func (s *session) Data(r io.Reader) error {
	buf, err := io.ReadAll(io.LimitReader(r, maxEmailSize))
	if err != nil {
		return err
	}

	str := &strings.Builder{}
	if _, err := str.Write(buf); err != nil {
		return err
	}
	to := make([]string, len(s.to))
	copy(to, s.to)
	s.store.saveEmail(Received{
		Username: s.username,
		From:     s.from,
		To:       to,
		Body:     str.String(),
	})
	return nil
}

// InMemoryEmailStore retains received messages in memory for comparison
// against a test's expected output. Designed to be goroutine safe since we
// don't know how many goroutines will be hitting the server at once.
type InMemoryEmailStore struct {
	mu       sync.Mutex
	messages []Received
}

// saveEmail stores the message along with a timestamp created just prior
// to saving
func (es *InMemoryEmailStore) saveEmail(m Received) {
	es.mu.Lock()
	defer es.mu.Unlock()

	m.Created = time.Now()
	es.messages = append(es.messages, m)
}

// Received returns every message received at or after epoch nanoseconds t
func (es *InMemoryEmailStore) Received(t int64) []Received {
	es.mu.Lock()
	defer es.mu.Unlock()

	r := make([]Received, 0, len(es.messages))
	for _, m := range es.messages {
		if m.Created.UnixNano() >= t {
			r = append(r, m)
		}
	}
	return r
}

// InProcessServer is an SMTP server that runs in the same process as the
// test suite, letting us inspect sent emails. You must initialize this
// via NewInProcessServer.
type InProcessServer struct {
	*smtp.Server
	*InMemoryEmailStore
	listener net.Listener
}

// NewInProcessServer creates an InProcessServer listening on a random
// loopback port, configured to store incoming messages in memory.
func NewInProcessServer(opts Options) (*InProcessServer, error) {
	is := &InMemoryEmailStore{}

	srv := smtp.NewServer(&Backend{
		InMemoryEmailStore: is,
		opts:               opts,
	})

	srv.Domain = "localhost"
	srv.AllowInsecureAuth = opts.AllowInsecureAuth
	srv.AuthDisabled = false
	// Strict is undocumented, but it looks like it enforces <address> syntax
	// in messages:
	// https://github.com/emersion/go-smtp/blob/f92bf7f1a25777bcdaa28a142b1cd1a54b74c8f4/conn.go#L321-L325
	srv.Strict = true
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second

	var tlsc *tls.Config
	if opts.KeyPath != "" || opts.CertPath != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertPath, opts.KeyPath)
		if err != nil {
			return nil, err
		}
		tlsc = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	if tlsc != nil && opts.ImplicitTLS {
		l = tls.NewListener(l, tlsc)
	} else if tlsc != nil {
		// The client upgrades the connection itself with STARTTLS
		srv.TLSConfig = tlsc
	}
	srv.Addr = l.Addr().String()

	return &InProcessServer{
		Server:             srv,
		InMemoryEmailStore: is,
		listener:           l,
	}, nil
}

// Start serves connections in a new goroutine and returns immediately. The
// listener is already bound, so clients can connect as soon as Start
// returns.
func (is *InProcessServer) Start() error {
	go func() {
		is.Server.Serve(is.listener)
	}()
	return nil
}

// Close shuts down the test server. You must initialize a new
// InProcessServer instead of restarting this one.
func (is *InProcessServer) Close() {
	is.Server.Close()
}

// Port returns the port the server is listening on.
func (is *InProcessServer) Port() int {
	return is.listener.Addr().(*net.TCPAddr).Port
}
