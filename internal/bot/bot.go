package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cryptochecker/internal/catalog"
	"cryptochecker/internal/provider/ratelimit"
	"cryptochecker/internal/render"
)

const (
	callbackPrefix = "check_"
	buttonsPerRow  = 3
	handleTimeout  = 2 * time.Minute
)

const startText = "👋 *Welcome to Crypto Checker!*\n\n" +
	"I check cryptocurrency and fiat prices.\n\n" +
	"*📚 How to use:*\n" +
	"1. *Catalog (buttons)*: send /catalog to see the tracked symbols. Tap a button to get its price.\n" +
	"2. *Command*: send `/price SYMBOL`, for example `/price BTC` or `/price EUR`.\n" +
	"3. *Add a symbol*: send `/add SYMBOL`.\n" +
	"4. *Remove a symbol*: send `/remove SYMBOL`.\n\n" +
	"Try /catalog to get started!"

// Bot routes Telegram updates to the price service and the catalog.
type Bot struct {
	api     Sender
	prices  PriceService
	catalog Catalog
	limiter *ratelimit.Keyed
	log     *zap.Logger
}

// New builds a bot. A nil limiter lets every update through.
func New(api Sender, prices PriceService, c Catalog, limiter *ratelimit.Keyed, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{api: api, prices: prices, catalog: c, limiter: limiter, log: log}
}

// Run handles updates until ctx is done or the channel is closed. Every
// update gets its own goroutine; Run waits for them before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}()
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("panic handling update", zap.Int("update_id", u.UpdateID), zap.Any("panic", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	if !b.limiter.Allow(chatID) {
		b.log.Debug("dropping message over the per-chat rate", zap.Int64("chat_id", chatID))
		return
	}

	if !m.IsCommand() {
		if strings.HasPrefix(m.Text, "/") {
			b.reply(chatID, "Unknown command. Try /start for the guide or /catalog to check prices.")
			return
		}
		b.reply(chatID, "I only understand commands. Please start with /start or /catalog.")
		return
	}

	arg := firstArg(m.CommandArguments())
	log := b.log.With(zap.Int64("chat_id", chatID), zap.String("command", m.Command()))
	log.Debug("command received", zap.String("arg", arg))

	switch m.Command() {
	case "start":
		b.reply(chatID, startText)

	case "catalog":
		b.sendCatalog(chatID)

	case "price":
		if arg == "" {
			b.reply(chatID, "Please provide a symbol. Format: `/price SYMBOL`")
			return
		}
		if !catalog.Valid(arg) {
			b.reply(chatID, invalidText(arg))
			return
		}
		b.reply(chatID, checkingText(arg))
		b.reply(chatID, b.priceText(ctx, arg))

	case "add":
		if arg == "" {
			b.reply(chatID, "Please provide a symbol to add. Format: `/add SYMBOL`")
			return
		}
		b.reply(chatID, b.addText(arg))

	case "remove":
		if arg == "" {
			b.reply(chatID, "Please provide a symbol to remove. Format: `/remove SYMBOL`")
			return
		}
		b.reply(chatID, b.removeText(arg))

	default:
		b.reply(chatID, "Unknown command. Try /start for the guide or /catalog to check prices.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	symbol, ok := strings.CutPrefix(q.Data, callbackPrefix)
	if !ok || !catalog.Valid(symbol) || q.Message == nil || q.Message.Chat == nil {
		b.answer(q.ID, "")
		return
	}
	chatID, msgID := q.Message.Chat.ID, q.Message.MessageID

	if !b.limiter.Allow(chatID) {
		b.answer(q.ID, "Too many requests, please slow down.")
		return
	}

	b.answer(q.ID, fmt.Sprintf("Checking %s...", symbol))
	b.edit(chatID, msgID, checkingText(symbol), nil)

	text := b.priceText(ctx, symbol)
	kb, hasKeyboard := b.Keyboard()
	if hasKeyboard {
		b.edit(chatID, msgID, text, &kb)
		return
	}
	b.edit(chatID, msgID, text, nil)
}

func (b *Bot) priceText(ctx context.Context, symbol string) string {
	name, msg := b.prices.GetPrice(ctx, symbol)
	if name == "" {
		return fmt.Sprintf("❌ Could not get the price of %s.\nError: %s", render.Bold(symbol), msg)
	}
	return msg
}

func (b *Bot) addText(symbol string) string {
	s := render.Bold(symbol)
	switch err := b.catalog.Add(symbol); {
	case err == nil:
		return fmt.Sprintf("🎉 %s was added to the catalog! Check it with /catalog.", s)
	case errors.Is(err, catalog.ErrExists):
		return fmt.Sprintf("✅ %s is already in the catalog!", s)
	case errors.Is(err, catalog.ErrInvalid):
		return invalidText(symbol)
	default:
		b.log.Error("adding to catalog", zap.String("symbol", symbol), zap.Error(err))
		return "❌ Could not save the catalog. Try again later."
	}
}

func (b *Bot) removeText(symbol string) string {
	s := render.Bold(symbol)
	switch err := b.catalog.Remove(symbol); {
	case err == nil:
		return fmt.Sprintf("🗑️ %s was removed from the catalog.", s)
	case errors.Is(err, catalog.ErrNotFound):
		return fmt.Sprintf("❌ %s is not in the catalog. Nothing to remove.", s)
	default:
		b.log.Error("removing from catalog", zap.String("symbol", symbol), zap.Error(err))
		return "❌ Could not save the catalog. Try again later."
	}
}

func (b *Bot) sendCatalog(chatID int64) {
	kb, ok := b.Keyboard()
	if !ok {
		b.reply(chatID, "The catalog is empty. Add a symbol with `/add SYMBOL`.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "⬇️ *Catalog* (tap a symbol to check its price):")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	b.send(msg)
}

// Keyboard lays the catalog out as inline buttons, three per row. It
// reports false when the catalog is empty.
func (b *Bot) Keyboard() (tgbotapi.InlineKeyboardMarkup, bool) {
	symbols := b.catalog.List()
	if len(symbols) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(symbols); i += buttonsPerRow {
		end := min(i+buttonsPerRow, len(symbols))
		row := make([]tgbotapi.InlineKeyboardButton, 0, end-i)
		for _, s := range symbols[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(s, callbackPrefix+s))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) edit(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = kb
	b.send(edit)
}

func (b *Bot) answer(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("answering callback", zap.Error(err))
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("sending message", zap.Error(err))
	}
}

func checkingText(symbol string) string {
	return fmt.Sprintf("⏳ Checking the price of %s...", render.Bold(symbol))
}

func invalidText(symbol string) string {
	return fmt.Sprintf("❌ %s does not look like a ticker symbol.", render.Bold(symbol))
}

func firstArg(args string) string {
	f := strings.Fields(args)
	if len(f) == 0 {
		return ""
	}
	return strings.ToUpper(f[0])
}
