package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"punch.reconciler/internal/ports/messaging"
)

// Notifier alerts a human when a session was auto-closed because the
// employee never checked out.
type Notifier interface {
	SendAutoCloseAlert(ctx context.Context, to string, event messaging.SessionClosedEvent) error
}

// SESNotifier sends the alert via AWS SES.
type SESNotifier struct {
	client *ses.Client
	sender string
}

func NewSESNotifier(client *ses.Client, sender string) *SESNotifier {
	return &SESNotifier{client: client, sender: sender}
}

func (s *SESNotifier) SendAutoCloseAlert(ctx context.Context, to string, event messaging.SessionClosedEvent) error {
	tracer := otel.Tracer("ses-notifier")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.String("app.employeeId", event.EmployeeID))

	body := fmt.Sprintf(
		"Hello,\n\nThe work session of employee %s starting %s was closed automatically "+
			"because no check-out was recorded. Auto check-out was set to %s (%.2f hours).\n\n"+
			"Please verify the record and correct it if needed.",
		event.EmployeeID,
		event.CheckIn.Format("2006-01-02 15:04"),
		event.CheckOut.Format("2006-01-02 15:04"),
		event.WorkedHours,
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Missing check-out for employee %s", event.EmployeeID)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
