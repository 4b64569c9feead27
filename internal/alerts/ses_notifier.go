package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// SESNotifier emails critical alerts to the on-call address using AWS SES
type SESNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewSESNotifier creates an SES-backed notifier
func NewSESNotifier(region, fromAddress, toAddress string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      logger,
	}, nil
}

// Notify sends the alert by email
func (n *SESNotifier) Notify(ctx context.Context, alert *models.Alert) error {
	subject := fmt.Sprintf("[%s] %s", alert.Severity, alert.RuleName)

	textBody := fmt.Sprintf(`A critical security alert was raised.

Rule:      %s (%s)
Severity:  %s
Time:      %s
Alert ID:  %s

%s

Review the security dashboard for surrounding events.
This is an automated message. Please do not reply to this email.
`, alert.RuleName, alert.RuleID, alert.Severity,
		alert.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"), alert.ID, alert.Message)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		n.logger.Error("failed to send alert email",
			slog.String("alert_id", alert.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	n.logger.Info("alert email sent",
		slog.String("alert_id", alert.ID),
		slog.String("rule_id", alert.RuleID),
	)
	return nil
}
