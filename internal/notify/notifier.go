package notify

import (
	"context"
	"fmt"
	"strings"
)

// Notifier defines the interface for publishing messages to a care-team channel.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// CrisisMessage formats the alert sent when a user reports feeling in crisis.
// source names where the report came from, e.g. "mood check-in".
func CrisisMessage(userID, source, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Crisis reported*\nUser: `%s`\nSource: %s", userID, source)
	if note = strings.TrimSpace(note); note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}
	return b.String()
}
