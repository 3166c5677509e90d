package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogSender writes notifications to the service log. It is always enabled so
// a fired alert leaves a trace even without chat integrations.
type LogSender struct{}

func (LogSender) Send(_ context.Context, title, message string) error {
	log.WithField("title", title).Warn(message)
	return nil
}

func (LogSender) Name() string {
	return "log"
}
