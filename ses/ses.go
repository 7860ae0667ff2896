// Package ses implements email.Transport on top of the AWS SES v2 API.
package ses

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ptgott/one-mail/email"
	"github.com/ptgott/one-mail/mailerr"
	"github.com/ptgott/one-mail/message"
)

// SendEmailAPI is the part of the SES v2 client we use. Tests substitute
// their own.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport delivers messages through SES as raw MIME. Host, port and
// security in the session are ignored; the AWS SDK owns the connection.
// When the session carries credentials, the username and password are used
// as an access key ID and secret access key for that call only.
type Transport struct {
	client SendEmailAPI
	// LastMessageID is the SES message ID of the most recent successful
	// send. Not safe to read while a Transmit is running.
	LastMessageID string
}

// New returns a Transport using the default AWS configuration chain for
// region.
func New(ctx context.Context, region string) (*Transport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient returns a Transport that sends through client.
func NewWithClient(client SendEmailAPI) *Transport {
	return &Transport{
		client: client,
	}
}

// CreateSession implements email.Transport.
func (t *Transport) CreateSession(props email.Properties, creds email.Credentials) (*email.Session, error) {
	if props.Auth && creds == nil {
		return nil, fmt.Errorf("%w: authentication is enabled but no credentials were supplied", mailerr.ErrInvalidArgument)
	}
	return email.NewSession(props, creds), nil
}

// Transmit implements email.Transport. SDK-level retries are turned off;
// a failure goes straight back to the caller.
func (t *Transport) Transmit(ctx context.Context, s *email.Session, m *message.Message) error {
	if s == nil || m == nil {
		return fmt.Errorf("%w: nil session or message", mailerr.ErrInvalidArgument)
	}

	var raw bytes.Buffer
	if _, err := m.WriteTo(&raw); err != nil {
		return err
	}

	rcpts := m.Recipients()
	to := make([]string, len(rcpts))
	for i, r := range rcpts {
		to[i] = r.Addr()
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.Sender().Addr()),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{
				Data: raw.Bytes(),
			},
		},
	}

	opts := []func(*sesv2.Options){
		func(o *sesv2.Options) {
			o.RetryMaxAttempts = 1
		},
	}
	if creds := s.Credentials(); creds != nil {
		u, p := creds()
		opts = append(opts, func(o *sesv2.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(u, p.Reveal(), "")
		})
	}

	out, err := t.client.SendEmail(ctx, input, opts...)
	if err != nil {
		return fmt.Errorf("SES refused the message: %w", err)
	}
	t.LastMessageID = aws.ToString(out.MessageId)
	return nil
}
