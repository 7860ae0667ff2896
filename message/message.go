package message

import (
	"github.com/ptgott/one-mail/address"
)

// Message is a composed e-mail, ready to be handed to a transport. It can't
// be changed after Builder.Build returns it, so it's safe to share between
// goroutines.
type Message struct {
	sender      address.ReadOnly
	recipients  []address.ReadOnly
	subject     string
	body        string
	charset     string
	mimeSubtype string
}

func (m *Message) Sender() address.ReadOnly { return m.sender }

// Recipients returns the recipients in the order they were given to the
// Builder. The slice is a copy.
func (m *Message) Recipients() []address.ReadOnly {
	r := make([]address.ReadOnly, len(m.recipients))
	copy(r, m.recipients)
	return r
}

func (m *Message) Subject() string { return m.subject }

// Body returns the message text exactly as it was set.
func (m *Message) Body() string { return m.body }

func (m *Message) Charset() string { return m.charset }

func (m *Message) MimeSubtype() string { return m.mimeSubtype }

// Mime returns the full content type, e.g. "text/html".
func (m *Message) Mime() string { return "text/" + m.mimeSubtype }

// Equal reports whether m and o carry the same content field for field.
// Recipients must match in order.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.sender != o.sender ||
		m.subject != o.subject ||
		m.body != o.body ||
		m.charset != o.charset ||
		m.mimeSubtype != o.mimeSubtype ||
		len(m.recipients) != len(o.recipients) {
		return false
	}
	for i := range m.recipients {
		if m.recipients[i] != o.recipients[i] {
			return false
		}
	}
	return true
}
