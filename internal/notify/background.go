package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Background publishes messages from a goroutine so request handlers do not
// wait on the notification channel. Failures are logged.
type Background struct {
	notifier Notifier
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewBackground(notifier Notifier, logger *zap.Logger) *Background {
	return &Background{notifier: notifier, logger: logger}
}

func (b *Background) Publish(message string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.notifier.Publish(context.Background(), message); err != nil {
			b.logger.Error("failed to publish notification", zap.Error(err))
		}
	}()
}

// Wait blocks until every message handed to Publish has been sent or failed.
func (b *Background) Wait() {
	b.wg.Wait()
}
