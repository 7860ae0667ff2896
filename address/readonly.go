package address

import (
	"fmt"

	"github.com/emersion/go-message/mail"

	"github.com/ptgott/one-mail/mailerr"
)

// ReadOnly is a frozen snapshot of an Address. It has no setters, so a
// message's participants can't be changed through a reference the caller
// kept. The zero value is not a valid address; get one from Freeze.
//
// ReadOnly is comparable and safe to share between goroutines.
type ReadOnly struct {
	name   string
	local  string
	domain string
}

// Freeze copies a into a ReadOnly. Changes made to a afterwards don't show
// up in the copy.
func Freeze(a *Address) (ReadOnly, error) {
	if a == nil {
		return ReadOnly{}, fmt.Errorf("%w: can't freeze a nil address", mailerr.ErrInvalidArgument)
	}
	return ReadOnly{
		name:   a.name,
		local:  a.local,
		domain: a.domain,
	}, nil
}

func (r ReadOnly) Name() string { return r.name }

func (r ReadOnly) Addr() string { return envelope(r.local, r.domain) }

func (r ReadOnly) LocalPart() string { return r.local }

func (r ReadOnly) Domain() string { return r.domain }

func (r ReadOnly) Type() string { return addressType }

func (r ReadOnly) IsGroup() bool { return false }

func (r ReadOnly) Validate() error { return validate(r.name, r.local, r.domain) }

func (r ReadOnly) Normalized() string { return normalize(r.local, r.domain) }

func (r ReadOnly) String() string { return format(r.name, r.local, r.domain) }

// Equal reports whether r and m share the same normalized address.
func (r ReadOnly) Equal(m Mailbox) bool {
	return !isNil(m) && r.Normalized() == m.Normalized()
}

// MailAddress returns a fresh net/mail style address for header encoding.
// The result is a copy; changing it doesn't touch r.
func (r ReadOnly) MailAddress() *mail.Address {
	return &mail.Address{
		Name:    r.name,
		Address: r.local + "@" + r.domain,
	}
}
