package message

import (
	"fmt"
	"strings"

	"github.com/ptgott/one-mail/address"
	"github.com/ptgott/one-mail/mailerr"
)

const (
	// DefaultCharset is used when SetCharset is never called. Go source
	// text, and so every Go string we're handed, is UTF-8.
	DefaultCharset = "UTF-8"
	// DefaultMimeSubtype is used when SetMimeSubtype is never called.
	DefaultMimeSubtype = "plain"
)

// slot holds one optional field. Once set is true the field is fixed for
// the life of the Builder.
type slot struct {
	value string
	set   bool
}

func (s slot) or(def string) string {
	if s.set {
		return s.value
	}
	return def
}

// fields is the part of a Builder that changes after construction
type fields struct {
	subject     slot
	body        slot
	charset     slot
	mimeSubtype slot
}

// Builder collects the content of one message. The sender and recipients
// are fixed when the Builder is created. Each optional field can be set once;
// a second attempt fails with mailerr.ErrIllegalState even after Build.
//
// A Builder must not be used from more than one goroutine.
type Builder struct {
	sender     address.ReadOnly
	recipients []address.ReadOnly
	fields     fields
}

// NewBuilder freezes sender and recipients and returns a Builder for a
// message between them. There must be at least one recipient and no two
// recipients may share a normalized address.
func NewBuilder(sender *address.Address, recipients ...*address.Address) (*Builder, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: nil sender", mailerr.ErrInvalidArgument)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", mailerr.ErrInvalidArgument)
	}

	s, err := address.Freeze(sender)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(recipients))
	r := make([]address.ReadOnly, 0, len(recipients))
	for i, a := range recipients {
		if a == nil {
			return nil, fmt.Errorf("%w: nil recipient at index %d", mailerr.ErrInvalidArgument, i)
		}
		ro, err := address.Freeze(a)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[ro.Normalized()]; ok {
			return nil, fmt.Errorf("%w: duplicate recipient %v", mailerr.ErrInvalidArgument, ro)
		}
		seen[ro.Normalized()] = struct{}{}
		r = append(r, ro)
	}

	return &Builder{
		sender:     s,
		recipients: r,
	}, nil
}

// NewBuilderFromStrings parses sender and recipients with the address
// package, then behaves like NewBuilder.
func NewBuilderFromStrings(sender string, recipients ...string) (*Builder, error) {
	s, err := address.Parse(sender)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	r, err := address.ParseList(recipients)
	if err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	return NewBuilder(s, r...)
}

// setOnce checks and fills one slot. The state check comes first, so a
// second call fails as illegal state even when the new value is also bad.
func setOnce(s *slot, name string, value string, stored string) error {
	if s.set {
		return fmt.Errorf("%w: %v is already set", mailerr.ErrIllegalState, name)
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: empty %v", mailerr.ErrInvalidArgument, name)
	}
	s.value = stored
	s.set = true
	return nil
}

// SetSubject sets the subject line, trimmed.
func (b *Builder) SetSubject(subject string) error {
	return setOnce(&b.fields.subject, "subject", subject, strings.TrimSpace(subject))
}

// SetBody sets the message text. Unlike the other fields it's stored as
// given, leading and trailing whitespace included. A body of only
// whitespace is still refused.
func (b *Builder) SetBody(body string) error {
	return setOnce(&b.fields.body, "body", body, body)
}

// SetCharset sets the charset the body is encoded in on the wire. It must
// be an IANA charset name or alias with an encoder, e.g. "utf-8" or
// "iso-8859-1". The name is kept as given, trimmed.
func (b *Builder) SetCharset(charset string) error {
	if b.fields.charset.set {
		return setOnce(&b.fields.charset, "charset", charset, "")
	}
	c := strings.TrimSpace(charset)
	if c != "" {
		if _, err := lookupCharset(c); err != nil {
			return err
		}
	}
	return setOnce(&b.fields.charset, "charset", charset, c)
}

// SetMimeSubtype sets the second half of the text/* content type, e.g.
// "html".
func (b *Builder) SetMimeSubtype(subtype string) error {
	return setOnce(&b.fields.mimeSubtype, "MIME subtype", subtype, strings.TrimSpace(subtype))
}

// Build returns a Message from the current state, filling in defaults for
// anything not set. It doesn't change the Builder, so calling it twice in a
// row gives two equal Messages.
func (b *Builder) Build() *Message {
	r := make([]address.ReadOnly, len(b.recipients))
	copy(r, b.recipients)

	return &Message{
		sender:      b.sender,
		recipients:  r,
		subject:     b.fields.subject.or(""),
		body:        b.fields.body.or(""),
		charset:     b.fields.charset.or(DefaultCharset),
		mimeSubtype: b.fields.mimeSubtype.or(DefaultMimeSubtype),
	}
}
