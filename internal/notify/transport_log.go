package notify

import (
	"context"

	"backoffice-service/internal/common/logger"
)

// LogTransport records messages instead of delivering them. Used when
// outbound email is disabled, so every other component keeps its contract.
type LogTransport struct {
	logger logger.Logger
}

func NewLogTransport(log logger.Logger) *LogTransport {
	return &LogTransport{logger: log}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("outbound email disabled, message logged", map[string]interface{}{
		"recipient":  msg.Recipient,
		"subject":    msg.Subject,
		"attachment": msg.AttachmentPath,
	})
	return nil
}
