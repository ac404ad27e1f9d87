// Package mail delivers account e-mails such as verification links.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

// Mailer is an interface for the SES sender and the development logger.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SESMailer sends plain-text mail through Amazon SES.
type SESMailer struct {
	Client sesiface.SESAPI
	From   string
}

// NewSESMailer creates an SESMailer using the default AWS credential chain.
func NewSESMailer(region, from string) (*SESMailer, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &SESMailer{Client: ses.New(sess), From: from}, nil
}

// Send delivers a single message to one recipient.
func (m *SESMailer) Send(ctx context.Context, to, subject, body string) error {
	_, err := m.Client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(m.From),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &ses.Body{
				Text: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes mail to the log instead of sending it. Used locally.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Log.Info("Mail not sent (log driver)", "to", to, "subject", subject, "body", body)
	return nil
}
