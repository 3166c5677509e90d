package commands

import (
	"context"
	"fmt"

	"coinpaprika-price-alerts/internal/alert"
	"coinpaprika-price-alerts/lib/helpers"
	"coinpaprika-price-alerts/lib/translation"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CommandPrice answers /p <SYMBOL> with the current price from the feed.
func (h *Handler) CommandPrice(ctx context.Context, argument string) (string, error) {
	log.Debugf("processing command /p with argument :%s", argument)

	assetID := alert.NormalizeAssetID(argument)
	if assetID == "" {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /p <symbol>")), nil
	}

	prices, err := h.feed.FetchPrices(ctx, []string{assetID})
	if err != nil {
		return "", errors.Wrap(err, "command /p")
	}

	p, ok := prices[assetID]
	if !ok {
		return "", errors.Errorf("no price for %s", assetID)
	}

	return fmt.Sprintf(
		translation.Translate("*%s price:*\n\n▫️`%s` *%s*"),
		helpers.EscapeMarkdownV2(assetID), helpers.FormatPrice(p), helpers.EscapeMarkdownV2(h.feed.Quote()),
	), nil
}
