package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	commonaws "backoffice-service/internal/common/aws"
)

// SESTransport delivers messages through AWS SES raw email, which carries
// the same MIME bytes as the SMTP path.
type SESTransport struct {
	client *commonaws.SESClient
	from   string
}

func NewSESTransport(client *commonaws.SESClient, from string) (*SESTransport, error) {
	if !isValidEmail(from) {
		return nil, fmt.Errorf("invalid 'from' email address: %s", from)
	}
	return &SESTransport{client: client, from: from}, nil
}

func (t *SESTransport) Name() string { return "ses" }

func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(t.from, msg)
	if err != nil {
		return err
	}

	_, err = t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &sestypes.RawMessage{Data: raw},
		Source:       aws.String(t.from),
		Destinations: []string{msg.Recipient},
	})
	return err
}
