package smtptest

import (
	"io"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// ParseEmail reads a raw message as received by a test server and returns
// its header along with the body, undoing quoted-printable encoding when
// the message declares it.
func ParseEmail(raw string) (mail.Header, string, error) {
	m, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, "", err
	}

	var r io.Reader = m.Body
	if strings.EqualFold(m.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return m.Header, string(b), nil
}
