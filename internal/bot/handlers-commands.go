package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
)

func (b *Bot) handleCommand(ctx context.Context, in input) {
	switch in.command {
	case "start":
		b.handleStart(ctx, in)
	case "menu":
		b.handleMenu(ctx, in)
	case "help":
		b.handleHelp(ctx, in)
	case "cancel":
		b.handleCancel(ctx, in)
	case "admin":
		b.handleAdmin(ctx, in)
	case "driver":
		b.handleDriver(ctx, in)
	default:
		b.handleUnknownCommand(ctx, in)
	}
}

func (b *Bot) handleDefault(ctx context.Context, in input) {
	b.sendError(in.chatID, "Я не понимаю это сообщение. Пожалуйста, используйте /menu.")
}

func (b *Bot) handleUnknownCommand(ctx context.Context, in input) {
	b.sendError(in.chatID, "Неизвестная команда. Используйте /help.")
}

func (b *Bot) handleHelp(ctx context.Context, in input) {
	b.sendText(in.chatID, textHelp, nil)
}

// handleStart greets a bound user with the menu and asks everyone else for a point number.
func (b *Bot) handleStart(ctx context.Context, in input) {
	b.dropState(ctx, in.chatID)

	user, err := b.store.EnsureUser(ctx, in.userID)
	if err != nil {
		b.logger.Error("Failed to register user",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	if user.PointID != nil {
		point, err := b.store.GetPoint(ctx, *user.PointID)
		switch {
		case err == nil:
			b.sendText(in.chatID,
				fmt.Sprintf("Вы уже привязаны к точке %04d. Выберите действие:", point.ID),
				createUserMenuKeyboard())
		case errors.Is(err, storage.ErrPointNotFound):
			b.sendText(in.chatID,
				"Ваша привязанная точка не найдена. Пожалуйста, обратитесь к администратору.",
				createHelpKeyboard())
		default:
			b.logger.Error("Failed to load bound point",
				zap.Int64("chat_id", in.chatID),
				zap.Int64("point_id", *user.PointID),
				zap.Error(err))
			b.sendError(in.chatID, textInternalError)
		}
		return
	}

	if !b.saveState(ctx, in.chatID, &redisstore.UserState{Step: StepRegistrationPoint}) {
		return
	}
	b.sendText(in.chatID, "Добро пожаловать в бот! Пожалуйста, введите номер точки:", nil)
}

func (b *Bot) handleMenu(ctx context.Context, in input) {
	user, err := b.store.GetUserByTelegramID(ctx, in.userID)
	if errors.Is(err, storage.ErrUserNotFound) || (err == nil && user.PointID == nil) {
		b.sendText(in.chatID, textBindFirst, createHelpKeyboard())
		return
	}
	if err != nil {
		b.logger.Error("Failed to get user",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}
	b.sendText(in.chatID, textChooseAction, createUserMenuKeyboard())
}

func (b *Bot) handleCancel(ctx context.Context, in input) {
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, textCancelled, nil)
}

func (b *Bot) handleCancelCallback(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	b.handleCancel(ctx, in)
}

func (b *Bot) handleAdmin(ctx context.Context, in input) {
	if !b.policy.CanAdminister(in.userID) {
		b.sendError(in.chatID, textAccessDenied)
		return
	}
	if !b.ensureOperator(ctx, in) {
		return
	}
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, "Панель администратора. "+textChooseAction, createAdminKeyboard())
}

func (b *Bot) handleDriver(ctx context.Context, in input) {
	if !b.policy.CanDrive(in.userID) {
		b.sendError(in.chatID, textAccessDenied)
		return
	}
	if !b.ensureOperator(ctx, in) {
		return
	}
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, textChooseAction, createDriverKeyboard())
}

// ensureOperator registers admins and drivers so shipments can reference them.
func (b *Bot) ensureOperator(ctx context.Context, in input) bool {
	if _, err := b.store.EnsureUser(ctx, in.userID); err != nil {
		b.logger.Error("Failed to register operator",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return false
	}
	return true
}

func (b *Bot) handleUseButtons(ctx context.Context, in input, state *redisstore.UserState) {
	if state.Step == StepShipmentCategory && state.Shipment != nil {
		b.sendText(in.chatID, textUseButtons+"\n"+textChooseCategory, createCategoryKeyboard(b.catalog))
		return
	}
	b.sendText(in.chatID, textUseButtons, nil)
}

func (b *Bot) admin(h callbackHandler) callbackHandler {
	return func(ctx context.Context, in input, state *redisstore.UserState, arg string) {
		if !b.policy.CanAdminister(in.userID) {
			b.logger.Warn("Admin action denied",
				zap.Int64("chat_id", in.chatID),
				zap.Int64("user_id", in.userID),
				zap.String("data", in.text))
			b.sendError(in.chatID, textAccessDenied)
			return
		}
		h(ctx, in, state, arg)
	}
}

func (b *Bot) driver(h callbackHandler) callbackHandler {
	return func(ctx context.Context, in input, state *redisstore.UserState, arg string) {
		if !b.policy.CanDrive(in.userID) {
			b.logger.Warn("Driver action denied",
				zap.Int64("chat_id", in.chatID),
				zap.Int64("user_id", in.userID),
				zap.String("data", in.text))
			b.sendError(in.chatID, textAccessDenied)
			return
		}
		h(ctx, in, state, arg)
	}
}
