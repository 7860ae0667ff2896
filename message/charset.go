package message

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ptgott/one-mail/mailerr"
)

// lookupCharset finds the encoder for a MIME charset name. The IANA index
// keeps iso-8859-1 and windows-1252 apart, so the bytes on the wire always
// match the label in Content-Type.
func lookupCharset(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown charset %q", mailerr.ErrInvalidArgument, name)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: charset %q isn't supported", mailerr.ErrInvalidArgument, name)
	}
	return enc, nil
}
