// Package notify delivers fired price alerts to every configured channel.
package notify

import (
	"context"
	"fmt"

	"coinpaprika-price-alerts/internal/metrics"
	"coinpaprika-price-alerts/internal/types"
	"coinpaprika-price-alerts/lib/helpers"
	"coinpaprika-price-alerts/lib/translation"
	log "github.com/sirupsen/logrus"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Dispatcher fans a fired alert out to all senders. A failing sender is
// logged and counted and never stops delivery to the others.
type Dispatcher struct {
	senders []Sender
	metrics *metrics.Metrics
}

func NewDispatcher(senders []Sender, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{senders: senders, metrics: m}
}

// Fire implements alert.NotificationSink.
func (d *Dispatcher) Fire(ctx context.Context, n types.Notification) {
	title, message := Format(n)

	for _, s := range d.senders {
		if err := s.Send(ctx, title, message); err != nil {
			log.WithFields(log.Fields{"sender": s.Name(), "asset": n.AssetID}).
				Errorf("❌ Failed to send price alert notification: %v", err)
			d.metrics.ObserveNotifyFailure(s.Name())
			continue
		}
		log.WithFields(log.Fields{"sender": s.Name(), "asset": n.AssetID}).Debug("✅ Price alert notification sent")
	}
}

// Format renders the notification title and body as plain text.
func Format(n types.Notification) (string, string) {
	current := "$" + helpers.FormatPrice(n.CurrentPrice)
	target := "$" + helpers.FormatPrice(n.TargetPrice)

	title := fmt.Sprintf(translation.Translate("Price Alert: %s"), n.AssetID)
	message := fmt.Sprintf(
		translation.Translate("%s has reached your target price!\nCurrent price: %s\nTarget price: %s"),
		n.AssetID, current, target,
	)
	return title, message
}
