package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recycle-bot/internal/model"
	"recycle-bot/internal/storage"
)

// notifyAdmins sends text to every admin and returns how many received it.
func (b *Bot) notifyAdmins(text string) int {
	delivered := 0
	for _, adminID := range b.opts.AdminIDs {
		if _, err := b.api.Send(tgbotapi.NewMessage(adminID, text)); err != nil {
			b.logger.Error("Failed to notify admin",
				zap.Int64("admin_id", adminID),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Bot) notifyHelpRequested(in input, pointID *int64) int {
	username := in.username
	if username == "" {
		username = "без имени"
	} else {
		username = "@" + username
	}
	point := "не привязана"
	if pointID != nil {
		point = fmt.Sprintf("%04d", *pointID)
	}

	return b.notifyAdmins(fmt.Sprintf(
		"🔔 Запрос на помощь от пользователя!\n"+
			"👤 Пользователь: %s (%d)\n"+
			"📍 Точка сбора: %s\n"+
			"🕒 Время запроса: %s",
		username, in.userID, point,
		b.opts.Now().Format("2006-01-02 15:04:05")))
}

func (b *Bot) notifyBagsReady(r model.Request) {
	b.notifyAdmins(fmt.Sprintf(
		"📦 Точка %04d готова к отгрузке\n"+
			"Алюминий: %d, ПЭТ: %d, стекло: %d, прочие: %d\n"+
			"Всего мешков: %d",
		r.PointID, r.Aluminum, r.PET, r.Glass, r.Other, r.TotalBags()))
}

// notifyPointUser tells the user bound to the shipment's point what was collected.
func (b *Bot) notifyPointUser(ctx context.Context, s model.Shipment) {
	user, err := b.store.GetPointUser(ctx, s.PointID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return
	}
	if err != nil {
		b.logger.Error("Failed to find point user",
			zap.Int64("point_id", s.PointID),
			zap.Error(err))
		return
	}

	text := fmt.Sprintf(
		"🚚 Ваши материалы забраны.\nОбщий вес: %s кг\nСумма к оплате: %s руб",
		s.TotalWeight.String(), s.TotalPay.StringFixed(2))
	if _, err := b.api.Send(tgbotapi.NewMessage(user.TelegramID, text)); err != nil {
		b.logger.Error("Failed to notify point user",
			zap.Int64("point_id", s.PointID),
			zap.Int64("chat_id", user.TelegramID),
			zap.Error(err))
	}
}

func (b *Bot) notifyPointDeleted(user *model.User, pointID int64) {
	text := fmt.Sprintf("Точка %04d удалена администратором. Для привязки к другой точке отправьте /start.", pointID)
	if _, err := b.api.Send(tgbotapi.NewMessage(user.TelegramID, text)); err != nil {
		b.logger.Warn("Failed to notify user about deleted point",
			zap.Int64("point_id", pointID),
			zap.Int64("chat_id", user.TelegramID),
			zap.Error(err))
	}
}
