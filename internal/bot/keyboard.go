package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recycle-bot/internal/materials"
	"recycle-bot/internal/shipment"
)

// BOT KEYBOARDS

func createUserMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Мы готовы к отгрузке", cbBagFull),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Запросить звонок менеджера", cbAdminHelp),
		),
	)
}

func createHelpKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Запросить звонок менеджера", cbAdminHelp),
		),
	)
}

func createBagsCountKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("0"),
			tgbotapi.NewKeyboardButton("1"),
			tgbotapi.NewKeyboardButton("2"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("3"),
			tgbotapi.NewKeyboardButton("4"),
			tgbotapi.NewKeyboardButton("5"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("6"),
			tgbotapi.NewKeyboardButton("7"),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func createBagsConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтверждаю: материал отсортирован и готов к отправке", cbBagsConfirm),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", cbBagsCancel),
		),
	)
}

func createAdminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отчеты", cbAdminReports),
			tgbotapi.NewInlineKeyboardButtonData("Сформировать лог", cbAdminExport),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Создать точку", cbAdminCreatePoint),
			tgbotapi.NewInlineKeyboardButtonData("Удалить точку", cbAdminDeletePoint),
		),
	)
}

func createReportKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("По зонам", cbReportZone),
			tgbotapi.NewInlineKeyboardButtonData("По регионам", cbReportRegion),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Детально по региону", cbReportRegionDetail),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("По точкам", cbReportPoints),
		),
	)
}

func createDriverKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Добавить отгрузку", cbDriverAddShipment),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сформировать маршрут", cbDriverRoute),
		),
	)
}

func createCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", cbCancel),
		),
	)
}

func createPointConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", cbPointConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", cbPointCancel),
		),
	)
}

func createCategoryKeyboard(catalog *materials.Catalog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range catalog.Groups() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Title, cbShipmentGroup+":"+g.Key),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Завершить", cbShipmentFinish)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Отменить", cbShipmentCancel)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// createMaterialsKeyboard marks materials already entered in the draft.
func createMaterialsKeyboard(group materials.Group, d *shipment.Draft) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range group.Materials {
		title := m.Title
		if _, ok := d.Line(m.Key); ok {
			title += " ✓"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(title, cbShipmentMaterial+":"+m.Key),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", cbShipmentBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func createAmountKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", cbShipmentBack),
			tgbotapi.NewInlineKeyboardButtonData("Отменить", cbShipmentCancel),
		),
	)
}

func createShipmentConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Подтвердить", cbShipmentConfirm),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отменить", cbShipmentCancel),
		),
	)
}
