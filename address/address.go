package address

import (
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ptgott/one-mail/mailerr"
)

// addressType is the only address type we produce. Groups are rejected at
// parse time.
const addressType = "rfc822"

// Mailbox is the read side of an e-mail address. Both *Address and ReadOnly
// satisfy it.
type Mailbox interface {
	// Name returns the display name, which may be empty
	Name() string
	// Addr returns the bare address, local@domain, with the local part
	// quoted when RFC 5321 requires it. This is the envelope form.
	Addr() string
	// LocalPart is unquoted
	LocalPart() string
	Domain() string
	// Type is always "rfc822"
	Type() string
	IsGroup() bool
	// Validate reports whether the address would survive a fresh parse
	Validate() error
	// Normalized is the key used for equality: the lower-cased bare address.
	// The display name plays no part in it.
	Normalized() string
	String() string
}

// Writable is a Mailbox whose fields can be changed in place. Only *Address
// implements it. Use Writer to find out whether a Mailbox you were handed can
// be written to.
type Writable interface {
	Mailbox
	SetName(name string) error
	SetNameCharset(name, charset string) error
	SetAddress(addr string) error
}

// Address is a single mailbox, e.g. `Jane Doe <jane@example.com>`. It is the
// caller's working copy and can be modified with its setters. Address is not
// safe for concurrent mutation.
type Address struct {
	name   string
	local  string
	domain string
}

// Parse trims s and parses it as a single RFC 5322 mailbox. RFC 2047 encoded
// display names are decoded. Address groups are not accepted.
func Parse(s string) (*Address, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, fmt.Errorf("%w: empty address", mailerr.ErrInvalidAddress)
	}

	// net/mail quietly flattens a group holding one member into that member,
	// so we reject group syntax before it gets the chance.
	if strings.HasSuffix(t, ";") {
		return nil, fmt.Errorf("%w: address groups are not supported: %q", mailerr.ErrInvalidAddress, t)
	}

	ma, err := mail.ParseAddress(t)
	if err != nil {
		return nil, fmt.Errorf("%w: can't parse %q: %v", mailerr.ErrInvalidAddress, t, err)
	}

	local, domain, err := splitAddr(ma.Address)
	if err != nil {
		return nil, err
	}

	return &Address{
		name:   ma.Name,
		local:  local,
		domain: domain,
	}, nil
}

// ParseList parses each string in ss with Parse. It returns either every
// address, in order, or the first failure along with its index.
func ParseList(ss []string) ([]*Address, error) {
	r := make([]*Address, 0, len(ss))
	for i, s := range ss {
		a, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("address at index %d: %w", i, err)
		}
		r = append(r, a)
	}
	return r, nil
}

// New returns an Address from a display name and a bare address.
func New(name, addr string) (*Address, error) {
	a := &Address{}
	if err := a.SetAddress(addr); err != nil {
		return nil, err
	}
	if err := a.SetName(name); err != nil {
		return nil, err
	}
	return a, nil
}

// splitAddr breaks a bare address at its last "@". net/mail has already
// checked the syntax by the time we get here.
func splitAddr(addr string) (local string, domain string, err error) {
	i := strings.LastIndex(addr, "@")
	if i <= 0 || i == len(addr)-1 {
		return "", "", fmt.Errorf("%w: missing local part or domain in %q", mailerr.ErrInvalidAddress, addr)
	}
	return addr[:i], addr[i+1:], nil
}

func (a *Address) Name() string { return a.name }

func (a *Address) Addr() string { return envelope(a.local, a.domain) }

func (a *Address) LocalPart() string { return a.local }

func (a *Address) Domain() string { return a.domain }

func (a *Address) Type() string { return addressType }

func (a *Address) IsGroup() bool { return false }

func (a *Address) Validate() error { return validate(a.name, a.local, a.domain) }

func (a *Address) Normalized() string { return normalize(a.local, a.domain) }

func (a *Address) String() string { return format(a.name, a.local, a.domain) }

// Equal reports whether a and m share the same normalized address.
func (a *Address) Equal(m Mailbox) bool {
	return !isNil(m) && a.Normalized() == m.Normalized()
}

// SetName replaces the display name. Names that would break out of a header
// line are refused.
func (a *Address) SetName(name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: display name contains a line break", mailerr.ErrInvalidArgument)
	}
	a.name = name
	return nil
}

// SetNameCharset is SetName for callers that track the charset a name came
// from. The charset must be one we could encode with. Names go on the wire
// as UTF-8 regardless.
func (a *Address) SetNameCharset(name, charset string) error {
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		return fmt.Errorf("%w: unknown charset %q", mailerr.ErrInvalidArgument, charset)
	}
	return a.SetName(name)
}

// SetAddress replaces the bare address, keeping the display name.
func (a *Address) SetAddress(addr string) error {
	t := strings.TrimSpace(addr)
	if t == "" {
		return fmt.Errorf("%w: empty address", mailerr.ErrInvalidAddress)
	}

	ma, err := mail.ParseAddress(t)
	if err != nil {
		return fmt.Errorf("%w: can't parse %q: %v", mailerr.ErrInvalidAddress, t, err)
	}
	if ma.Name != "" {
		return fmt.Errorf("%w: expected a bare address but got %q", mailerr.ErrInvalidAddress, t)
	}

	local, domain, err := splitAddr(ma.Address)
	if err != nil {
		return err
	}
	a.local = local
	a.domain = domain
	return nil
}

// Writer returns m as a Writable if m can be modified. A ReadOnly can't, and
// yields mailerr.ErrUnsupported.
func Writer(m Mailbox) (Writable, error) {
	w, ok := m.(Writable)
	if !ok {
		return nil, fmt.Errorf("%w: %T is read-only", mailerr.ErrUnsupported, m)
	}
	return w, nil
}

// isNil catches a nil *Address hiding in a non-nil interface
func isNil(m Mailbox) bool {
	switch v := m.(type) {
	case nil:
		return true
	case *Address:
		return v == nil
	}
	return false
}

// envelope renders local@domain the way net/mail does, quoting local parts
// that aren't a dot-atom, e.g. "john doe"@example.com.
func envelope(local, domain string) string {
	s := (&mail.Address{Address: local + "@" + domain}).String()
	return strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
}

func normalize(local, domain string) string {
	return strings.ToLower(local + "@" + domain)
}

func format(name, local, domain string) string {
	ma := mail.Address{
		Name:    name,
		Address: local + "@" + domain,
	}
	return ma.String()
}

func validate(name, local, domain string) error {
	if local == "" || domain == "" {
		return fmt.Errorf("%w: empty address", mailerr.ErrInvalidAddress)
	}
	s := format(name, local, domain)
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("%w: %q no longer parses: %v", mailerr.ErrInvalidAddress, s, err)
	}
	return nil
}
