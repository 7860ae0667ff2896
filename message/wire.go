package message

import (
	"fmt"
	"io"
	"mime/quotedprintable"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/google/uuid"

	"github.com/ptgott/one-mail/mailerr"
)

// now is swapped out in tests that need a fixed Date header
var now = time.Now

// countingWriter tracks how much we've written so WriteTo can report it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Header returns the RFC 5322 header WriteTo would emit, with a fresh
// Message-ID and the current date.
func (m *Message) Header() mail.Header {
	var h mail.Header
	h.SetDate(now())
	h.SetMessageID(uuid.NewString() + "@" + m.sender.Domain())
	h.SetAddressList("From", []*mail.Address{m.sender.MailAddress()})

	to := make([]*mail.Address, len(m.recipients))
	for i, r := range m.recipients {
		to[i] = r.MailAddress()
	}
	h.SetAddressList("To", to)

	h.SetSubject(m.subject)
	h.Set("MIME-Version", "1.0")
	h.SetContentType(m.Mime(), map[string]string{"charset": m.charset})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	return h
}

// encodedBody returns the body in the message's charset. Runes the charset
// can't represent are an error rather than being replaced.
func (m *Message) encodedBody() ([]byte, error) {
	enc, err := lookupCharset(m.charset)
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(m.body))
	if err != nil {
		return nil, fmt.Errorf(
			"%w: the body can't be encoded as %v: %v",
			mailerr.ErrInvalidArgument,
			m.charset,
			err,
		)
	}
	return b, nil
}

// WriteTo writes m to w as a complete single-part MIME message: headers, a
// blank line, then the quoted-printable body. Every call generates a new
// Message-ID.
//
// go-message's entity writer only accepts UTF-8 and US-ASCII bodies, so the
// header goes out through its textproto layer and the body, already in the
// message's charset, is quoted-printable encoded here.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	body, err := m.encodedBody()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	h := m.Header()
	if err := textproto.WriteHeader(cw, h.Header.Header); err != nil {
		return cw.n, fmt.Errorf("can't write the message header: %w", err)
	}
	qw := quotedprintable.NewWriter(cw)
	if _, err := qw.Write(body); err != nil {
		return cw.n, fmt.Errorf("can't write the message body: %w", err)
	}
	if err := qw.Close(); err != nil {
		return cw.n, fmt.Errorf("can't finish the message body: %w", err)
	}
	return cw.n, nil
}
