package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the subset of *tgbotapi.BotAPI the handlers use.
//
//go:generate mockgen -package=bot_test -destination=mock_deps_test.go -source=deps.go
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// PriceService renders a quote for a symbol. An empty name means the
// lookup failed and message explains why.
type PriceService interface {
	GetPrice(ctx context.Context, symbol string) (name, message string)
}

// Catalog is the shared list of tracked symbols.
type Catalog interface {
	List() []string
	Add(symbol string) error
	Remove(symbol string) error
}
