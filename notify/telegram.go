// Package notify mirrors admin-room order events to Telegram chats.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cafe-order/models"
	"cafe-order/services"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram implements services.Notifier. It only reacts to the admin room;
// customer rooms stay on the WebSocket channel.
type Telegram struct {
	api          Sender
	chatIDs      []int64
	dashboardURL string
	log          *slog.Logger
}

func NewTelegram(api Sender, chatIDs []int64, dashboardURL string, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.Default()
	}
	return &Telegram{api: api, chatIDs: chatIDs, dashboardURL: dashboardURL, log: log}
}

// Dial logs in with token and returns a notifier for chatIDs. Every Bot API
// request is bounded by timeout.
func Dial(token string, timeout time.Duration, chatIDs []int64, dashboardURL string, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return NewTelegram(api, chatIDs, dashboardURL, log), nil
}

func (t *Telegram) Publish(ctx context.Context, room string, ev services.Event) error {
	if room != services.RoomAdmin || len(t.chatIDs) == 0 {
		return nil
	}
	card, ok := BuildAdminCard(ev)
	if !ok {
		return nil
	}
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		msg := tgbotapi.NewMessage(chatID, card.Text)
		if kb, ok := t.keyboard(); ok {
			msg.ReplyMarkup = kb
		}
		if err := t.send(ctx, msg); err != nil {
			t.log.Warn("telegram send failed", "chat_id", chatID, "event", ev.Name, "error", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// send gives up when ctx is done. Send itself takes no context, so the
// request keeps running in the background until the HTTP client times out.
func (t *Telegram) send(ctx context.Context, msg tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Telegram) keyboard() (tgbotapi.InlineKeyboardMarkup, bool) {
	if t.dashboardURL == "" {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("📋 Buka dashboard", t.dashboardURL)),
	), true
}

// Card is the text of one Telegram message.
type Card struct {
	Text string
}

var statusLabels = map[string]string{
	services.OrderStatusPending:   "🆕 Menunggu",
	services.OrderStatusAccepted:  "👍 Diterima",
	services.OrderStatusPreparing: "👨‍🍳 Sedang disiapkan",
	services.OrderStatusReady:     "✅ Siap diambil",
	services.OrderStatusCompleted: "🏁 Selesai",
	services.OrderStatusCancelled: "❌ Dibatalkan",
}

func statusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// FormatRupiah renders 15000 as "Rp 15.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-Rp " + humanize.FormatInteger("#.###,", int(-amount))
	}
	return "Rp " + humanize.FormatInteger("#.###,", int(amount))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// BuildAdminCard renders an admin-room event. It returns false for events
// that have no Telegram form.
func BuildAdminCard(ev services.Event) (Card, bool) {
	switch data := ev.Data.(type) {
	case models.Order:
		return newOrderCard(&data), true
	case *models.Order:
		return newOrderCard(data), true
	case models.OrderStatusEvent:
		return statusCard(data), true
	case *models.OrderStatusEvent:
		return statusCard(*data), true
	}
	return Card{}, false
}

func newOrderCard(o *models.Order) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "🛎 Pesanan baru #%s\n\n", shortID(o.ID))
	fmt.Fprintf(&b, "👤 %s\n", o.CustomerName)
	if o.TableNumber != nil && *o.TableNumber != "" {
		fmt.Fprintf(&b, "🪑 Meja %s\n", *o.TableNumber)
	}
	b.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "• %dx %s (%s)\n", it.Quantity, it.Name, FormatRupiah(it.Price*int64(it.Quantity)))
	}
	fmt.Fprintf(&b, "\n💵 Total: %s\n", FormatRupiah(o.Total))
	fmt.Fprintf(&b, "Status: %s", statusLabel(o.Status))
	return Card{Text: b.String()}
}

func statusCard(e models.OrderStatusEvent) Card {
	return Card{Text: fmt.Sprintf("Pesanan #%s\nStatus: %s", shortID(e.OrderID), statusLabel(e.Status))}
}
