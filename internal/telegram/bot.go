package telegram

import (
	"context"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/insights"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/llm"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/query"
)

const (
	clearDataConfirm = "cleardata_confirm"
	clearDataCancel  = "cleardata_cancel"
)

type catalog interface {
	Search(ctx context.Context, p books.Params) ([]books.Book, error)
}

type normalizer interface {
	Normalize(ctx context.Context, text string) query.Result
}

type Bot struct {
	api            *tgbotapi.BotAPI
	s              sender
	llmClient      llm.Client
	normalizer     normalizer
	catalog        catalog
	insights       *insights.Service
	adminUserID    int64
	parseMode      string
	requestTimeout time.Duration
}

func New(
	botToken string,
	llmClient llm.Client,
	nrm *query.Normalizer,
	cat *books.Client,
	ins *insights.Service,
	adminUserID int64,
	parseMode string,
	requestTimeout time.Duration,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:            api,
		s:              botAPISender{api: api},
		llmClient:      llmClient,
		normalizer:     nrm,
		catalog:        cat,
		insights:       ins,
		adminUserID:    adminUserID,
		parseMode:      parseMode,
		requestTimeout: requestTimeout,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update.Message)
			continue
		}
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	log.Printf("incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	// Bare text is treated as a book search, same as /findbook.
	if msg.Text != "" {
		b.handleFindBook(ctx, msg, msg.Text)
		return
	}
	b.sendMessage(msg.Chat.ID, helpText)
}

// SendToUser delivers a message outside the command flow, used by the
// scheduled analytics digest.
func (b *Bot) SendToUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	_, err := b.s.Send(msg)
	return err
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if b.parseMode != "" {
		msg.ParseMode = b.parseMode
	}
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.requestTimeout)
}

func userIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
