// Package aws sends citizen-facing notification messages through SES (email) and SNS (SMS).
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

var (
	ErrEmailDisabled = errors.New("EMAIL_CHANNEL_DISABLED")
	ErrSMSDisabled   = errors.New("SMS_CHANNEL_DISABLED")
)

// SESService is the subset of the SES client the messenger needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the subset of the SNS client the messenger needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type MessengerConfig struct {
	Region      string
	FromEmail   string
	SMSSenderID string
}

// Messenger delivers rendered notifications. A nil service disables its channel.
type Messenger struct {
	config MessengerConfig
	ses    SESService
	sns    SNSService
}

func NewMessenger(cfg MessengerConfig, sesSvc SESService, snsSvc SNSService) *Messenger {
	return &Messenger{config: cfg, ses: sesSvc, sns: snsSvc}
}

// NewMessengerFromConfig loads default AWS credentials for the region and builds both clients.
func NewMessengerFromConfig(ctx context.Context, cfg MessengerConfig, emailEnabled, smsEnabled bool) (*Messenger, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	m := &Messenger{config: cfg}
	if emailEnabled {
		m.ses = ses.NewFromConfig(awsCfg)
	}
	if smsEnabled {
		m.sns = sns.NewFromConfig(awsCfg)
	}
	return m, nil
}

// SendEmail returns the SES message ID.
func (m *Messenger) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	if m.ses == nil {
		return "", ErrEmailDisabled
	}

	out, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// SendSMS publishes a transactional SMS and returns the SNS message ID.
func (m *Messenger) SendSMS(ctx context.Context, phoneNumber, message string) (string, error) {
	if m.sns == nil {
		return "", ErrSMSDisabled
	}

	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if m.config.SMSSenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(m.config.SMSSenderID),
		}
	}

	out, err := m.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phoneNumber),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
