package commands

import (
	"context"
	"fmt"
	"strings"

	"coinpaprika-price-alerts/internal/alert"
	"coinpaprika-price-alerts/lib/helpers"
	"coinpaprika-price-alerts/lib/translation"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CommandAlert handles /alert <SYMBOL> <PRICE>, /alert list,
// /alert cancel <SYMBOL> and /alert status.
func (h *Handler) CommandAlert(ctx context.Context, argument string) (string, error) {
	log.Debugf("processing command /alert with argument :%s", argument)

	args := strings.Fields(argument)
	if len(args) == 0 {
		return usage(), nil
	}

	switch strings.ToLower(args[0]) {
	case "list":
		return h.listAlerts(ctx)
	case "status":
		return h.status(ctx)
	case "cancel":
		if len(args) != 2 {
			return usage(), nil
		}
		return h.cancelAlert(ctx, args[1])
	}

	if len(args) != 2 {
		return usage(), nil
	}
	return h.setAlert(ctx, args[0], args[1])
}

func usage() string {
	return helpers.EscapeMarkdownV2(translation.Translate(
		"Usage:\n/alert <symbol> <price> - set an alert\n/alert list - show alerts\n/alert cancel <symbol> - remove an alert\n/alert status - monitor status",
	))
}

func (h *Handler) setAlert(ctx context.Context, symbol, rawTarget string) (string, error) {
	assetID := alert.NormalizeAssetID(symbol)
	target, err := h.store.PutString(ctx, assetID, strings.TrimPrefix(rawTarget, "$"))

	var invalid *alert.InvalidAlertError
	if errors.As(err, &invalid) {
		return fmt.Sprintf(
			translation.Translate("Invalid target price *%s* for %s\\. Use a number greater than zero\\."),
			helpers.EscapeMarkdownV2(rawTarget), helpers.EscapeMarkdownV2(assetID),
		), nil
	}
	if err != nil {
		return "", errors.Wrap(err, "command /alert")
	}

	// The alert is saved either way; a failed start is retried by the next
	// alert or at boot.
	if _, err := h.controller.Start(ctx); err != nil {
		log.Errorf("❌ Failed to start alert monitor: %v", err)
	}

	return fmt.Sprintf(
		translation.Translate("✅ Alert set for *%s* at *$%s*"),
		helpers.EscapeMarkdownV2(assetID), helpers.FormatPriceUS(target, true),
	), nil
}

func (h *Handler) cancelAlert(ctx context.Context, symbol string) (string, error) {
	assetID := alert.NormalizeAssetID(symbol)
	if err := h.store.Remove(ctx, assetID); err != nil {
		return "", errors.Wrap(err, "command /alert cancel")
	}
	return fmt.Sprintf(
		translation.Translate("Alert for *%s* removed\\."),
		helpers.EscapeMarkdownV2(assetID),
	), nil
}

func (h *Handler) listAlerts(ctx context.Context) (string, error) {
	alerts, err := h.store.List(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /alert list")
	}

	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No active alerts.")), nil
	}

	var alertList strings.Builder
	alertList.WriteString(translation.Translate("*Active alerts:*\n\n"))
	for _, a := range alerts {
		alertList.WriteString(fmt.Sprintf(
			translation.Translate("▫️ *%s* at $%s, set %s\n"),
			helpers.EscapeMarkdownV2(a.AssetID),
			helpers.FormatPriceUS(a.TargetPrice, true),
			helpers.EscapeMarkdownV2(helpers.FormatAge(a.CreatedAt)),
		))
	}
	return alertList.String(), nil
}

func (h *Handler) status(ctx context.Context) (string, error) {
	n, err := h.store.Count(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /alert status")
	}

	state := translation.Translate("idle")
	if h.controller.IsRunning() {
		state = translation.Translate("running")
	}
	return fmt.Sprintf(
		translation.Translate("Monitoring %d price alerts, monitor is *%s*"),
		n, state,
	), nil
}
