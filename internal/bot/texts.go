package bot

// User-facing texts shared by several handlers.
const (
	textInternalError = "Произошла ошибка. Пожалуйста, попробуйте позже."
	textStaleAction   = "Это действие больше недоступно. Откройте /menu."
	textAccessDenied  = "У вас нет доступа к этой команде."
	textUseButtons    = "Пожалуйста, используйте кнопки."
	textChooseAction  = "Выберите действие:"
	textCancelled     = "Действие отменено."

	textHelp = `Доступные команды:
/start - привязать точку или открыть меню
/menu - меню точки
/cancel - отменить текущее действие
/help - показать эту справку

Для администраторов: /admin
Для водителей: /driver`

	textAskPointCode    = "Введите номер точки (4 цифры, например 1021):"
	textInvalidPoint    = "Номер точки должен состоять из 4 цифр, первая от 1 до 9. Попробуйте снова."
	textPointNotFound   = "Точка с таким номером не найдена. Пожалуйста, проверьте номер и попробуйте снова."
	textInvalidNumber   = "Введите число, например 12.5 или 12,5."
	textNegativeNumber  = "Значение не может быть отрицательным."
	textNoPointBound    = "У вас нет привязанной точки сбора."
	textBindFirst       = "⚠️ Сначала привяжите точку сбора: отправьте /start."
	textChooseCategory  = "Выберите категорию материала или завершите ввод:"
	textChooseMaterial  = "Выберите материал:"
	textShipmentAborted = "❌ Отгрузка отменена. Данные не сохранены."
)
