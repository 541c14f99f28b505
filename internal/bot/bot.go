// Package bot answers slash commands posted to the Pachka outgoing webhook.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"simops/internal/logger"
	"simops/internal/notify"
	"simops/internal/pipeline"
	"simops/internal/sources"
	"simops/internal/util"
)

// Event is the outgoing-webhook payload for a chat message.
type Event struct {
	Type    string `json:"type"`
	Event   string `json:"event"`
	Content string `json:"content"`
	ChatID  string `json:"chat_id"`
}

// rawEvent accepts chat_id as a JSON number or string.
type rawEvent struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Content string          `json:"content"`
	ChatID  json.RawMessage `json:"chat_id"`
}

func (r rawEvent) event() Event {
	id := strings.TrimSpace(string(r.ChatID))
	if id == "null" {
		id = ""
	}
	return Event{Type: r.Type, Event: r.Event, Content: r.Content, ChatID: strings.Trim(id, `"`)}
}

type Exporter interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

type Bot struct {
	name      string
	sink      notify.Sink
	source    sources.RecordSource
	exporter  Exporter
	columns   Columns
	now       func() time.Time
	log       *zerolog.Logger
	wg        sync.WaitGroup
	exporting atomic.Bool
}

// New builds a bot. source and exporter may be nil; the commands that need
// them then answer with a configuration error.
func New(name string, sink notify.Sink, source sources.RecordSource, exporter Exporter, columns Columns) *Bot {
	return &Bot{
		name:     name,
		sink:     sink,
		source:   source,
		exporter: exporter,
		columns:  columns,
		now:      time.Now,
		log:      logger.Named("bot"),
	}
}

func (b *Bot) Name() string { return b.name }

// Dispatch handles ev in the background so the webhook can answer at once.
func (b *Bot) Dispatch(ctx context.Context, ev Event) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Handle(ctx, ev)
	}()
}

// Wait blocks until every dispatched event is handled.
func (b *Bot) Wait() { b.wg.Wait() }

// Handle runs the command in ev, if any. Non-message events and plain text
// are ignored.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	if ev.Type != "message" || ev.Event != "new" {
		return
	}
	content := strings.TrimSpace(ev.Content)
	if !strings.HasPrefix(content, "/") {
		return
	}
	command := strings.TrimSpace(content[1:])
	name, arg, _ := strings.Cut(command, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	log := b.log.With().Str("chat_id", ev.ChatID).Str("command", name).Logger()
	log.Info().Msg("command received")

	switch name {
	case "start", "help":
		b.reply(ctx, ev.ChatID, b.help())
	case "new":
		if arg == "" {
			b.reply(ctx, ev.ChatID, "Укажите текст после /new")
			return
		}
		if b.reply(ctx, ev.ChatID, arg) {
			b.reply(ctx, ev.ChatID, fmt.Sprintf("Текст '%s' отправлен", arg))
		}
	case "active":
		device := util.UnwrapMarkdownLink(arg)
		if device == "" {
			b.reply(ctx, ev.ChatID, "Пожалуйста, укажите название устройства после /active. Пример: /active router1")
			return
		}
		b.checkDevice(ctx, ev.ChatID, device)
	case "export":
		b.runExport(ctx, ev.ChatID)
	default:
		b.reply(ctx, ev.ChatID, fmt.Sprintf("Неизвестная команда /%s. Список команд: /start", name))
	}
}

func (b *Bot) help() string {
	return fmt.Sprintf(`Привет! Я %s.

Доступные команды:
/start - показать это сообщение
/new [текст] - отправить текст в общий канал
/active [устройство] - проверить активность симкарт для устройства
/export - выгрузить ICCID:IMEI по операторам

Пример использования:
/new разработка чата
/active router1`, b.name)
}

func (b *Bot) checkDevice(ctx context.Context, chatID, device string) {
	if b.source == nil {
		b.reply(ctx, chatID, "❌ Источник данных симкарт не настроен.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("🔍 Начинаю проверку активности симкарт для устройства: %s...", device))

	sheet, err := b.source.Rows(ctx)
	if err != nil {
		b.log.Error().Err(err).Str("device", device).Msg("read sheet")
		b.reply(ctx, chatID, fmt.Sprintf("❌ Ошибка при проверке симкарт для устройства %s: %v", device, err))
		return
	}
	report := FindDevice(sheet, b.columns, device)
	if len(report.Sims) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("❌ Устройство '%s' не найдено в базе данных симкарт.", device))
		return
	}
	b.reply(ctx, chatID, report.Render(b.now()))
}

func (b *Bot) runExport(ctx context.Context, chatID string) {
	if b.exporter == nil {
		b.reply(ctx, chatID, "❌ Выгрузка не настроена.")
		return
	}
	if !b.exporting.CompareAndSwap(false, true) {
		b.reply(ctx, chatID, "Выгрузка уже идёт, дождитесь результата.")
		return
	}
	defer b.exporting.Store(false)

	b.reply(ctx, chatID, "Запускаю выгрузку ICCID:IMEI...")
	res, err := b.exporter.Run(ctx)
	if err != nil {
		b.reply(ctx, chatID, fmt.Sprintf("❌ Ошибка выгрузки: %v", err))
		return
	}
	b.reply(ctx, chatID, res.Summary)
}

func (b *Bot) reply(ctx context.Context, chatID, text string) bool {
	if err := b.sink.Send(ctx, chatID, text); err != nil {
		b.log.Error().Err(err).Str("chat_id", chatID).Msg("reply failed")
		return false
	}
	return true
}
