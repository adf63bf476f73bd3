package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recycle-bot/internal/model"
	"recycle-bot/internal/points"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
)

func (b *Bot) handleCreatePointStart(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	state := &redisstore.UserState{Step: StepCreatePointCode, Point: &points.Draft{}}
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, "Создание точки. "+textAskPointCode, createCancelKeyboard())
}

func (b *Bot) handleCreatePointCode(ctx context.Context, in input, state *redisstore.UserState) {
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
	if exists {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, fmt.Sprintf("Точка %s уже существует.", code))
		return
	}

	state.Point = &points.Draft{Code: code.String()}
	b.advancePointDraft(ctx, in, state, StepCreatePointName, "Введите название точки:")
}

func (b *Bot) handleCreatePointName(ctx context.Context, in input, state *redisstore.UserState) {
	if b.pointDraft(ctx, in, state) == nil {
		return
	}
	if err := state.Point.SetName(in.text); err != nil {
		b.rejectPointField(in, err, points.MaxNameLen)
		return
	}
	b.advancePointDraft(ctx, in, state, StepCreatePointOwner, "Введите имя владельца:")
}

func (b *Bot) handleCreatePointOwner(ctx context.Context, in input, state *redisstore.UserState) {
	if b.pointDraft(ctx, in, state) == nil {
		return
	}
	if err := state.Point.SetOwnerName(in.text); err != nil {
		b.rejectPointField(in, err, points.MaxNameLen)
		return
	}
	b.advancePointDraft(ctx, in, state, StepCreatePointPhone, "Введите телефон владельца (например, +79991234567):")
}

func (b *Bot) handleCreatePointPhone(ctx context.Context, in input, state *redisstore.UserState) {
	if b.pointDraft(ctx, in, state) == nil {
		return
	}
	if err := state.Point.SetPhone(in.text); err != nil {
		b.rejectPointField(in, err, 0)
		return
	}
	b.advancePointDraft(ctx, in, state, StepCreatePointAddress, "Введите адрес точки:")
}

func (b *Bot) handleCreatePointAddress(ctx context.Context, in input, state *redisstore.UserState) {
	d := b.pointDraft(ctx, in, state)
	if d == nil {
		return
	}
	if err := d.SetAddress(in.text); err != nil {
		b.rejectPointField(in, err, points.MaxAddressLen)
		return
	}

	code, err := points.ParseCode(d.Code)
	if err != nil {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textStaleAction)
		return
	}

	state.Step = StepCreatePointConfirm
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, fmt.Sprintf(
		"Проверьте данные точки:\n\n"+
			"Номер: %s (регион %d, зона %d)\n"+
			"Название: %s\n"+
			"Владелец: %s\n"+
			"Телефон: %s\n"+
			"Адрес: %s",
		code, code.Region, code.ZoneID, d.Name, d.OwnerName, points.FormatPhoneNumber(d.Phone), d.Address),
		createPointConfirmKeyboard())
}

func (b *Bot) pointDraft(ctx context.Context, in input, state *redisstore.UserState) *points.Draft {
	if state.Point == nil {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textStaleAction)
		return nil
	}
	return state.Point
}

func (b *Bot) advancePointDraft(ctx context.Context, in input, state *redisstore.UserState, next, prompt string) {
	state.Step = next
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, prompt, createCancelKeyboard())
}

func (b *Bot) rejectPointField(in input, err error, limit int) {
	switch {
	case errors.Is(err, points.ErrEmptyField):
		b.sendError(in.chatID, "Значение не может быть пустым. Попробуйте снова.")
	case errors.Is(err, points.ErrFieldTooLong):
		b.sendError(in.chatID, fmt.Sprintf("Слишком длинное значение, максимум %d символов.", limit))
	case errors.Is(err, points.ErrInvalidPhone):
		b.sendError(in.chatID, "Некорректный номер телефона. Введите 10-15 цифр, например +79991234567.")
	default:
		b.sendError(in.chatID, textInternalError)
	}
}

func (b *Bot) handlePointConfirm(ctx context.Context, in input, state *redisstore.UserState, _ string) {
	switch state.Step {
	case StepCreatePointConfirm:
		b.createPoint(ctx, in, state)
	case StepDeletePointConfirm:
		b.deletePoint(ctx, in, state)
	default:
		b.sendError(in.chatID, textStaleAction)
	}
}

func (b *Bot) handlePointCancel(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, textCancelled, createAdminKeyboard())
}

func (b *Bot) createPoint(ctx context.Context, in input, state *redisstore.UserState) {
	d := b.pointDraft(ctx, in, state)
	if d == nil {
		return
	}
	code, err := points.ParseCode(d.Code)
	if err != nil || !d.Complete() {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textStaleAction)
		return
	}

	res, err := b.store.CreatePoint(ctx, code, *d)
	b.dropState(ctx, in.chatID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrPointExists):
		b.sendError(in.chatID, fmt.Sprintf("Точка %s уже существует.", code))
		return
	default:
		b.logger.Error("Failed to create point",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", code.ID),
			zap.Error(err))
		b.sendError(in.chatID, "Не удалось создать точку. Изменения отменены.")
		return
	}

	lines := []string{fmt.Sprintf("✅ Точка %s создана.", code)}
	if res.RegionCreated {
		lines = append(lines, fmt.Sprintf("Создан новый регион %d.", code.Region))
	}
	if res.ZoneCreated {
		lines = append(lines, fmt.Sprintf("Создана новая зона %d.", code.ZoneID))
	}
	b.sendText(in.chatID, strings.Join(lines, "\n"), createAdminKeyboard())
}

func (b *Bot) handleDeletePointStart(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	if !b.saveState(ctx, in.chatID, &redisstore.UserState{Step: StepDeletePointCode}) {
		return
	}
	b.sendText(in.chatID, "Удаление точки. "+textAskPointCode, createCancelKeyboard())
}

func (b *Bot) handleDeletePointCode(ctx context.Context, in input, state *redisstore.UserState) {
	code, err := points.ParseCode(in.text)
	if err != nil {
		b.sendError(in.chatID, textInvalidPoint)
		return
	}

	point, err := b.store.GetPoint(ctx, code.ID)
	if errors.Is(err, storage.ErrPointNotFound) {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, fmt.Sprintf("Точка %s не найдена.", code))
		return
	}
	if err != nil {
		b.logger.Error("Failed to get point",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", code.ID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	state.Step = StepDeletePointConfirm
	state.DeletePointID = &point.ID
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, fmt.Sprintf(
		"Удалить точку %04d «%s» (%s)?\n"+
			"Привязанный пользователь и заявки точки будут удалены, отгрузки сохранятся.",
		point.ID, point.Name, point.Address),
		createPointConfirmKeyboard())
}

func (b *Bot) deletePoint(ctx context.Context, in input, state *redisstore.UserState) {
	if state.DeletePointID == nil {
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, textStaleAction)
		return
	}
	pointID := *state.DeletePointID

	var bound *model.User
	user, err := b.store.GetPointUser(ctx, pointID)
	switch {
	case err == nil:
		bound = user
	case errors.Is(err, storage.ErrUserNotFound):
	default:
		b.logger.Warn("Failed to look up point user before delete",
			zap.Int64("point_id", pointID),
			zap.Error(err))
	}

	res, err := b.store.DeletePoint(ctx, pointID)
	b.dropState(ctx, in.chatID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrPointNotFound):
		b.sendError(in.chatID, fmt.Sprintf("Точка %04d уже удалена.", pointID))
		return
	default:
		b.logger.Error("Failed to delete point",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", pointID),
			zap.Error(err))
		b.sendError(in.chatID, "Не удалось удалить точку. Изменения отменены.")
		return
	}

	text := fmt.Sprintf("✅ Точка %04d удалена.\nУдалено заявок: %d\nОтгрузок сохранено: %d",
		pointID, res.RequestsDeleted, res.ShipmentsReassigned)
	if res.UserRemoved {
		text += "\nПривязанный пользователь удален."
	}
	b.sendText(in.chatID, text, createAdminKeyboard())

	if res.UserRemoved && bound != nil {
		b.notifyPointDeleted(bound, pointID)
	}
}
