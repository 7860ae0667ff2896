package spool

import (
	"context"
	"errors"
	"io"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgott/one-mail/email"
	"github.com/ptgott/one-mail/mailerr"
	"github.com/ptgott/one-mail/message"
	"github.com/ptgott/one-mail/settings"
	"github.com/ptgott/one-mail/storage"
)

func testMessage(t *testing.T) *message.Message {
	t.Helper()
	b, err := message.NewBuilderFromStrings("Sender <sender@host.com>", "recipient@host.com")
	require.NoError(t, err)
	require.NoError(t, b.SetSubject("Spooled"))
	require.NoError(t, b.SetMimeSubtype("html"))
	require.NoError(t, b.SetBody("<p>hi</p>"))
	return b.Build()
}

func TestSpoolToBadger(t *testing.T) {
	db, err := storage.NewBadgerDB(&storage.KVConfig{
		StorageDirPath: t.TempDir(),
		KeyTTLDuration: time.Hour,
	})
	require.NoError(t, err)
	defer db.Close()

	tr, err := New(db)
	require.NoError(t, err)
	snd, err := email.NewSender(tr)
	require.NoError(t, err)

	require.NoError(t, snd.Send(context.Background(), testMessage(t), settings.New()))
	require.NotEmpty(t, tr.LastKey)

	raw, err := tr.Read(tr.LastKey)
	require.NoError(t, err)

	m, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "Spooled", m.Header.Get("Subject"))
	assert.Contains(t, m.Header.Get("Content-Type"), "text/html")

	first := tr.LastKey
	require.NoError(t, snd.Send(context.Background(), testMessage(t), settings.New()))
	assert.NotEqual(t, first, tr.LastKey)
}

func TestSpoolLegacyCharset(t *testing.T) {
	db, err := storage.NewBadgerDB(&storage.KVConfig{
		StorageDirPath: t.TempDir(),
	})
	require.NoError(t, err)
	defer db.Close()

	tr, err := New(db)
	require.NoError(t, err)
	snd, err := email.NewSender(tr)
	require.NoError(t, err)

	b, err := message.NewBuilderFromStrings("sender@host.com", "recipient@host.com")
	require.NoError(t, err)
	require.NoError(t, b.SetCharset("iso-8859-1"))
	require.NoError(t, b.SetBody("déjà vu"))
	require.NoError(t, snd.Send(context.Background(), b.Build(), settings.New()))

	raw, err := tr.Read(tr.LastKey)
	require.NoError(t, err)
	m, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=iso-8859-1", m.Header.Get("Content-Type"))

	body, err := io.ReadAll(quotedprintable.NewReader(m.Body))
	require.NoError(t, err)
	assert.Equal(t, []byte{'d', 0xe9, 'j', 0xe0, ' ', 'v', 'u'}, body)
}

func TestSpoolFailure(t *testing.T) {
	tr, err := New(&storage.NoOpDB{})
	require.NoError(t, err)
	snd, err := email.NewSender(tr)
	require.NoError(t, err)

	err = snd.Send(context.Background(), testMessage(t), settings.New())
	assert.ErrorIs(t, err, mailerr.ErrTransport)
	assert.Empty(t, tr.LastKey)

	_, err = tr.Read("anything")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSpoolCancelled(t *testing.T) {
	tr, err := New(&storage.NoOpDB{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tr.Transmit(ctx, nil, testMessage(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewNilStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, mailerr.ErrInvalidArgument)
}
