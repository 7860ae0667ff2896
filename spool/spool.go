// Package spool implements email.Transport by storing each materialized
// message in a key/value store instead of sending it. It's meant for dry
// runs and for handing mail to a separate delivery process.
package spool

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ptgott/one-mail/email"
	"github.com/ptgott/one-mail/mailerr"
	"github.com/ptgott/one-mail/message"
	"github.com/ptgott/one-mail/storage"
)

// Transport writes messages to a storage.KeyValue, keyed by a random UUID.
// Session properties and credentials are accepted and ignored.
type Transport struct {
	db storage.KeyValue
	// LastKey is the key of the most recently spooled message. Not safe to
	// read while a Transmit is running.
	LastKey string
}

// New returns a Transport that writes to db. Closing db is up to the caller.
func New(db storage.KeyValue) (*Transport, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil store", mailerr.ErrInvalidArgument)
	}
	return &Transport{db: db}, nil
}

// CreateSession implements email.Transport.
func (t *Transport) CreateSession(props email.Properties, creds email.Credentials) (*email.Session, error) {
	return email.NewSession(props, creds), nil
}

// Transmit implements email.Transport.
func (t *Transport) Transmit(ctx context.Context, _ *email.Session, m *message.Message) error {
	if m == nil {
		return fmt.Errorf("%w: nil message", mailerr.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return err
	}

	k := uuid.NewString()
	if err := t.db.Put(storage.KVEntry{
		Key:   []byte(k),
		Value: buf.Bytes(),
	}); err != nil {
		return fmt.Errorf("can't spool the message: %w", err)
	}
	t.LastKey = k
	return nil
}

// Read returns the raw message stored under key.
func (t *Transport) Read(key string) ([]byte, error) {
	e, err := t.db.Read([]byte(key))
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}
