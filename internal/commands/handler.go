package commands

import (
	"coinpaprika-price-alerts/internal/alert"
	"coinpaprika-price-alerts/internal/price"
)

// Handler answers chat commands. Texts it returns are MarkdownV2.
type Handler struct {
	store      *alert.Store
	controller *alert.Controller
	feed       price.Feed
}

func NewHandler(store *alert.Store, controller *alert.Controller, feed price.Feed) *Handler {
	return &Handler{store: store, controller: controller, feed: feed}
}
