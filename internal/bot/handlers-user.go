package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"recycle-bot/internal/model"
	"recycle-bot/internal/points"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
)

// maxBagsPerCategory is the largest count on the bag keyboard.
const maxBagsPerCategory = 7

var bagPrompts = [...]string{
	"Сколько мешков алюминия заполнено?",
	"Сколько мешков ПЭТ заполнено?",
	"Сколько мешков стекла заполнено?",
	"Сколько мешков прочих отходов заполнено?",
}

func (b *Bot) handleRegistrationPoint(ctx context.Context, in input, state *redisstore.UserState) {
	code, err := points.ParseCode(in.text)
	if err != nil {
		b.sendError(in.chatID, textInvalidPoint)
		return
	}

	exists, err := b.store.PointExists(ctx, code.ID)
	if err != nil {
		b.logger.Error("Failed to check point",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", code.ID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}
	if !exists {
		b.sendError(in.chatID, textPointNotFound)
		return
	}

	err = b.store.BindPointToUser(ctx, in.userID, code.ID)
	switch {
	case err == nil:
		b.dropState(ctx, in.chatID)
		b.sendText(in.chatID,
			fmt.Sprintf("Отлично, вы успешно привязаны к точке %s!", code),
			createUserMenuKeyboard())
	case errors.Is(err, storage.ErrPointTaken):
		b.dropState(ctx, in.chatID)
		b.sendText(in.chatID,
			"Эта точка уже привязана к другому пользователю. Пожалуйста, обратитесь к администратору.",
			createHelpKeyboard())
	case errors.Is(err, storage.ErrPointNotFound):
		b.sendError(in.chatID, textPointNotFound)
	default:
		b.logger.Error("Failed to bind point",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", code.ID),
			zap.Error(err))
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textInternalError)
	}
}

// boundUser returns the user with a point, telling the chat when there is none.
func (b *Bot) boundUser(ctx context.Context, in input) (*model.User, bool) {
	user, err := b.store.GetUserByTelegramID(ctx, in.userID)
	if errors.Is(err, storage.ErrUserNotFound) || (err == nil && user.PointID == nil) {
		b.sendText(in.chatID, textNoPointBound, createHelpKeyboard())
		return nil, false
	}
	if err != nil {
		b.logger.Error("Failed to get user",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return nil, false
	}
	return user, true
}

func (b *Bot) handleBagFull(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	if _, ok := b.boundUser(ctx, in); !ok {
		return
	}

	state := &redisstore.UserState{
		Step: StepBagsCount,
		Bags: &redisstore.BagsDraft{},
	}
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, bagPrompts[0], createBagsCountKeyboard())
}

func (b *Bot) handleBagsCount(ctx context.Context, in input, state *redisstore.UserState) {
	if state.Bags == nil || len(state.Bags.Counts) >= len(bagPrompts) {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textStaleAction)
		return
	}

	n, err := strconv.Atoi(strings.TrimSpace(in.text))
	if err != nil || n < 0 || n > maxBagsPerCategory {
		b.sendText(in.chatID,
			fmt.Sprintf("Выберите число от 0 до %d на клавиатуре.", maxBagsPerCategory),
			createBagsCountKeyboard())
		return
	}

	state.Bags.Counts = append(state.Bags.Counts, n)
	if len(state.Bags.Counts) < len(bagPrompts) {
		if b.saveState(ctx, in.chatID, state) {
			b.sendText(in.chatID, bagPrompts[len(state.Bags.Counts)], createBagsCountKeyboard())
		}
		return
	}

	state.Step = StepBagsConfirmation
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	r := bagsRequest(state.Bags)
	b.sendText(in.chatID, fmt.Sprintf(
		"Пожалуйста, подтвердите введенные данные:\n\n"+
			"Алюминий: %d\nПЭТ: %d\nСтекло: %d\nПрочие: %d\nВсего: %d\n\nВсе верно?",
		r.Aluminum, r.PET, r.Glass, r.Other, r.TotalBags()),
		createBagsConfirmKeyboard())
}

func bagsRequest(d *redisstore.BagsDraft) model.Request {
	var c [4]int
	copy(c[:], d.Counts)
	return model.Request{
		Activity: model.ActivityBagFull,
		Aluminum: c[0],
		PET:      c[1],
		Glass:    c[2],
		Other:    c[3],
	}
}

func (b *Bot) handleBagsConfirm(ctx context.Context, in input, state *redisstore.UserState, _ string) {
	if state.Step != StepBagsConfirmation || state.Bags == nil {
		b.sendError(in.chatID, textStaleAction)
		return
	}
	user, ok := b.boundUser(ctx, in)
	if !ok {
		b.dropState(ctx, in.chatID)
		return
	}

	r := bagsRequest(state.Bags)
	r.PointID = *user.PointID
	r.UserID = user.ID

	saved, err := b.store.AddBagFullRequest(ctx, r)
	if err != nil {
		b.logger.Error("Failed to save bag report",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", r.PointID),
			zap.Error(err))
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textInternalError)
		return
	}

	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID,
		"✅ Спасибо, информация получена, мы пришлем грузовик в течение 5 дней",
		createUserMenuKeyboard())
	b.notifyBagsReady(*saved)
}

func (b *Bot) handleBagsCancel(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, "❌ Ввод данных отменен. Вы можете начать заново.", nil)
}

// handleAdminHelp records a help request for a bound point and alerts the admins either way.
func (b *Bot) handleAdminHelp(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	user, err := b.store.GetUserByTelegramID(ctx, in.userID)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		b.logger.Error("Failed to get user",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	var pointID *int64
	if user != nil && user.PointID != nil {
		pointID = user.PointID
		if _, err := b.store.AddRequest(ctx, model.Request{
			PointID:  *user.PointID,
			UserID:   user.ID,
			Activity: model.ActivityAdminHelp,
		}); err != nil {
			b.logger.Error("Failed to save help request",
				zap.Int64("chat_id", in.chatID),
				zap.Int64("point_id", *user.PointID),
				zap.Error(err))
			b.sendError(in.chatID, textInternalError)
			return
		}
	}

	if b.notifyHelpRequested(in, pointID) == 0 {
		b.sendError(in.chatID, "Не удалось отправить запрос администратору. Попробуйте позже.")
		return
	}

	text := "✅ Ваш запрос на помощь отправлен администратору."
	if b.opts.AdminPhone != "" {
		text += "\n📞 Вы также можете позвонить по номеру: " + b.opts.AdminPhone
	}
	var markup any
	if pointID != nil {
		markup = createUserMenuKeyboard()
	}
	b.sendText(in.chatID, text, markup)
}
