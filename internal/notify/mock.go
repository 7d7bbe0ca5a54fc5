package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier implements Notifier by writing messages to the logger.
// Replace it with a real channel integration for production use.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, message string) error {
	n.logger.Info("notification published", zap.String("message", message))
	return nil
}
