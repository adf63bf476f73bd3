// Package bot is the chat layer of the recycling service: it turns Telegram
// updates into dialogue steps and dialogue steps into store operations.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recycle-bot/internal/materials"
	"recycle-bot/internal/model"
	"recycle-bot/internal/points"
	"recycle-bot/internal/report"
	"recycle-bot/internal/shipment"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
)

// Sender is the part of tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Storage is the durable store behind the dialogues.
type Storage interface {
	EnsureUser(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	BindPointToUser(ctx context.Context, telegramID, pointID int64) error
	GetPointUser(ctx context.Context, pointID int64) (*model.User, error)

	GetPoint(ctx context.Context, id int64) (*model.Point, error)
	PointExists(ctx context.Context, id int64) (bool, error)
	ListPoints(ctx context.Context) ([]model.Point, error)
	CreatePoint(ctx context.Context, code points.Code, d points.Draft) (*storage.PointCreation, error)
	DeletePoint(ctx context.Context, id int64) (*storage.PointDeletion, error)

	AddRequest(ctx context.Context, r model.Request) (*model.Request, error)
	AddBagFullRequest(ctx context.Context, r model.Request) (*model.Request, error)
	ListRequests(ctx context.Context) ([]model.Request, error)

	CommitShipment(ctx context.Context, s model.Shipment) (*model.Shipment, error)
	ListShipments(ctx context.Context) ([]model.Shipment, error)

	ListRegions(ctx context.Context) ([]model.Region, error)
	ZoneStats(ctx context.Context) ([]report.ZoneStat, error)
}

// StateStore keeps the dialogue state of every chat.
type StateStore interface {
	GetUserDialogState(ctx context.Context, chatID int64) (*redisstore.UserState, error)
	SetUserDialogState(ctx context.Context, chatID int64, state *redisstore.UserState) error
	DropUserDialogState(ctx context.Context, chatID int64) error
}

type Options struct {
	// AdminIDs receive help requests and bag reports.
	AdminIDs   []int64
	AdminPhone string
	// ReportChunkSize bounds one report message, in characters.
	ReportChunkSize int
	Now             func() time.Time
}

type (
	textHandler     func(ctx context.Context, in input, state *redisstore.UserState)
	callbackHandler func(ctx context.Context, in input, state *redisstore.UserState, arg string)
)

type Bot struct {
	api     Sender
	store   Storage
	states  StateStore
	catalog *materials.Catalog
	wizard  *shipment.Wizard
	policy  Policy
	logger  *zap.Logger
	opts    Options

	turns *chatTurns
	wg    sync.WaitGroup

	handlers  map[string]textHandler
	callbacks map[string]callbackHandler
}

func New(
	api Sender,
	store Storage,
	states StateStore,
	catalog *materials.Catalog,
	policy Policy,
	logger *zap.Logger,
	opts Options,
) *Bot {
	if opts.ReportChunkSize <= 0 {
		opts.ReportChunkSize = report.DefaultChunkSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Bot{
		api:     api,
		store:   store,
		states:  states,
		catalog: catalog,
		wizard:  shipment.NewWizard(catalog),
		policy:  policy,
		logger:  logger,
		opts:    opts,
		turns:   newChatTurns(),
	}

	b.registerHandlers()
	return b
}

// input is a message or a button press reduced to what the handlers need.
type input struct {
	chatID     int64
	userID     int64
	username   string
	text       string
	command    string
	callbackID string
}

func newInput(update tgbotapi.Update) (input, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		msg := update.Message
		in := input{
			chatID: msg.Chat.ID,
			userID: msg.Chat.ID,
			text:   msg.Text,
		}
		if msg.From != nil {
			in.userID = msg.From.ID
			in.username = msg.From.UserName
		}
		if msg.IsCommand() {
			in.command = msg.Command()
		}
		return in, true

	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		cb := update.CallbackQuery
		in := input{
			chatID:     cb.From.ID,
			userID:     cb.From.ID,
			username:   cb.From.UserName,
			text:       cb.Data,
			callbackID: cb.ID,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			in.chatID = cb.Message.Chat.ID
		}
		return in, true
	}
	return input{}, false
}

// Start handles updates until ctx is cancelled. Chats are served concurrently,
// updates of one chat strictly in order.
func (b *Bot) Start(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.logger.Info("Starting bot")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot, waiting for handlers")
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return fmt.Errorf("updates channel closed")
			}
			in, ok := newInput(update)
			if !ok {
				continue
			}
			wait, done := b.turns.enter(in.chatID)
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer done()
				wait()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate processes one update. A panic is logged and the chat's dialogue reset.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := newInput(update)
	if !ok {
		return
	}
	defer b.recoverPanic(ctx, in)

	if in.callbackID != "" {
		b.processCallback(ctx, in)
		return
	}
	b.processMessage(ctx, in)
}

func (b *Bot) recoverPanic(ctx context.Context, in input) {
	r := recover()
	if r == nil {
		return
	}
	b.logger.Error("Handler panicked",
		zap.Int64("chat_id", in.chatID),
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()))

	if err := b.states.DropUserDialogState(ctx, in.chatID); err != nil {
		b.logger.Error("Failed to reset state after panic",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
	}
	b.sendError(in.chatID, textInternalError)
}

func (b *Bot) processMessage(ctx context.Context, in input) {
	b.logger.Debug("Processing message",
		zap.Int64("chat_id", in.chatID),
		zap.String("text", in.text))

	if in.command != "" {
		b.handleCommand(ctx, in)
		return
	}

	state, ok := b.loadState(ctx, in.chatID)
	if !ok {
		return
	}

	if handler, exists := b.handlers[state.Step]; exists {
		handler(ctx, in, state)
		return
	}
	b.handleDefault(ctx, in)
}

func (b *Bot) processCallback(ctx context.Context, in input) {
	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", in.chatID),
		zap.String("data", in.text))

	if _, err := b.api.Request(tgbotapi.NewCallback(in.callbackID, "")); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
	}

	state, ok := b.loadState(ctx, in.chatID)
	if !ok {
		return
	}

	key, arg := splitCallback(in.text)
	handler, exists := b.callbacks[key]
	if !exists {
		b.logger.Warn("Unknown callback",
			zap.Int64("chat_id", in.chatID),
			zap.String("data", in.text))
		b.sendError(in.chatID, textStaleAction)
		return
	}
	handler(ctx, in, state, arg)
}

func (b *Bot) loadState(ctx context.Context, chatID int64) (*redisstore.UserState, bool) {
	state, err := b.states.GetUserDialogState(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, textInternalError)
		return nil, false
	}
	return state, true
}

func (b *Bot) saveState(ctx context.Context, chatID int64, state *redisstore.UserState) bool {
	if err := b.states.SetUserDialogState(ctx, chatID, state); err != nil {
		b.logger.Error("Failed to save user state",
			zap.Int64("chat_id", chatID),
			zap.String("step", state.Step),
			zap.Error(err))
		b.sendError(chatID, textInternalError)
		return false
	}
	return true
}

func (b *Bot) dropState(ctx context.Context, chatID int64) {
	if err := b.states.DropUserDialogState(ctx, chatID); err != nil {
		b.logger.Error("Failed to drop user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.sendMessage(msg)
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+text))
}
