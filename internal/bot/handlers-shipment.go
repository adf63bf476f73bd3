package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"recycle-bot/internal/points"
	"recycle-bot/internal/shipment"
	"recycle-bot/internal/storage"
	redisstore "recycle-bot/internal/storage/redis"
)

func (b *Bot) handleShipmentStart(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	if !b.saveState(ctx, in.chatID, &redisstore.UserState{Step: StepShipmentPointID}) {
		return
	}
	b.sendText(in.chatID, "Введите ID точки:", createCancelKeyboard())
}

func (b *Bot) handleShipmentPointID(ctx context.Context, in input, state *redisstore.UserState) {
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

	state.Step = StepShipmentCategory
	state.Shipment = shipment.NewDraft(code.ID)
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID,
		fmt.Sprintf("Точка %s. %s", code, textChooseCategory),
		createCategoryKeyboard(b.catalog))
}

// shipmentDraft returns the draft when the chat is in one of steps.
func (b *Bot) shipmentDraft(in input, state *redisstore.UserState, steps ...string) (*shipment.Draft, bool) {
	if state.Shipment == nil {
		b.sendError(in.chatID, textStaleAction)
		return nil, false
	}
	for _, s := range steps {
		if state.Step == s {
			return state.Shipment, true
		}
	}
	b.sendError(in.chatID, textStaleAction)
	return nil, false
}

func (b *Bot) handleShipmentGroup(ctx context.Context, in input, state *redisstore.UserState, key string) {
	d, ok := b.shipmentDraft(in, state, StepShipmentCategory)
	if !ok {
		return
	}
	group, found := b.catalog.Group(key)
	if !found {
		b.sendError(in.chatID, textStaleAction)
		return
	}
	b.sendText(in.chatID, group.Title+". "+textChooseMaterial, createMaterialsKeyboard(group, d))
}

func (b *Bot) handleShipmentMaterial(ctx context.Context, in input, state *redisstore.UserState, key string) {
	d, ok := b.shipmentDraft(in, state, StepShipmentCategory)
	if !ok {
		return
	}
	step, err := b.wizard.ChooseMaterial(d, key)
	if err != nil {
		b.logger.Warn("Unknown material chosen",
			zap.Int64("chat_id", in.chatID),
			zap.String("material", key))
		b.sendError(in.chatID, textStaleAction)
		return
	}

	state.Step = string(step)
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID,
		fmt.Sprintf("Введите вес «%s» (кг):", b.catalog.Title(key)),
		createAmountKeyboard())
}

func (b *Bot) handleShipmentWeight(ctx context.Context, in input, state *redisstore.UserState) {
	d, ok := b.shipmentDraft(in, state, StepShipmentWeight)
	if !ok {
		return
	}
	material := d.Current

	step, err := b.wizard.EnterWeight(d, in.text)
	if err != nil {
		b.rejectAmount(ctx, in, state, err)
		return
	}

	state.Step = string(step)
	if !b.saveState(ctx, in.chatID, state) {
		return
	}

	title := b.catalog.Title(material)
	if step == shipment.StepAwaitingPrice {
		b.sendText(in.chatID,
			fmt.Sprintf("Введите цену за кг «%s» (руб):", title),
			createAmountKeyboard())
		return
	}

	line, _ := d.Line(material)
	var text string
	switch {
	case line.Weight.IsZero():
		text = fmt.Sprintf("Вес «%s» равен 0, цена не требуется.", title)
	default:
		text = fmt.Sprintf("«%s»: %s кг по прайсу %s руб/кг, сумма %s руб.",
			title, line.Weight.String(), line.Price.String(), line.Total().StringFixed(2))
	}
	b.sendText(in.chatID, text+"\n"+textChooseCategory, createCategoryKeyboard(b.catalog))
}

func (b *Bot) handleShipmentPrice(ctx context.Context, in input, state *redisstore.UserState) {
	d, ok := b.shipmentDraft(in, state, StepShipmentPrice)
	if !ok {
		return
	}
	material := d.Current

	step, err := b.wizard.EnterPrice(d, in.text)
	if err != nil {
		b.rejectAmount(ctx, in, state, err)
		return
	}

	state.Step = string(step)
	if !b.saveState(ctx, in.chatID, state) {
		return
	}

	line, _ := d.Line(material)
	b.sendText(in.chatID,
		fmt.Sprintf("«%s»: %s кг × %s руб = %s руб.\n%s",
			b.catalog.Title(material), line.Weight.String(), line.Price.String(),
			line.Total().StringFixed(2), textChooseCategory),
		createCategoryKeyboard(b.catalog))
}

// rejectAmount re-prompts after invalid input. The draft was not changed.
func (b *Bot) rejectAmount(ctx context.Context, in input, state *redisstore.UserState, err error) {
	switch {
	case errors.Is(err, shipment.ErrNotANumber):
		b.sendText(in.chatID, "❌ "+textInvalidNumber, createAmountKeyboard())
	case errors.Is(err, shipment.ErrNegative):
		b.sendText(in.chatID, "❌ "+textNegativeNumber, createAmountKeyboard())
	case errors.Is(err, shipment.ErrNoMaterial):
		state.Step = StepShipmentCategory
		if b.saveState(ctx, in.chatID, state) {
			b.sendText(in.chatID, textChooseCategory, createCategoryKeyboard(b.catalog))
		}
	default:
		b.logger.Error("Unexpected amount error",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
	}
}

func (b *Bot) handleShipmentBack(ctx context.Context, in input, state *redisstore.UserState, _ string) {
	d, ok := b.shipmentDraft(in, state, StepShipmentCategory, StepShipmentWeight, StepShipmentPrice)
	if !ok {
		return
	}
	state.Step = string(b.wizard.Back(d))
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID, textChooseCategory, createCategoryKeyboard(b.catalog))
}

func (b *Bot) handleShipmentFinish(ctx context.Context, in input, state *redisstore.UserState, _ string) {
	d, ok := b.shipmentDraft(in, state, StepShipmentCategory)
	if !ok {
		return
	}

	summary, step, err := b.wizard.Finish(d)
	if errors.Is(err, shipment.ErrEmptyDraft) {
		b.sendText(in.chatID, "Не введено ни одного материала. "+textChooseCategory, createCategoryKeyboard(b.catalog))
		return
	}
	if err != nil {
		b.logger.Error("Failed to finish shipment",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	state.Step = string(step)
	if !b.saveState(ctx, in.chatID, state) {
		return
	}
	b.sendText(in.chatID,
		fmt.Sprintf("Точка %04d\n%s", d.PointID, summary.Text()),
		createShipmentConfirmKeyboard())
}

func (b *Bot) handleShipmentCancel(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	b.dropState(ctx, in.chatID)
	b.sendText(in.chatID, textShipmentAborted, nil)
}

// handleShipmentConfirm commits the draft. Totals are recomputed from the
// stored weights and prices, not from the summary shown earlier.
func (b *Bot) handleShipmentConfirm(ctx context.Context, in input, state *redisstore.UserState, _ string) {
	d, ok := b.shipmentDraft(in, state, StepShipmentConfirmation)
	if !ok {
		return
	}

	operator, err := b.store.GetUserByTelegramID(ctx, in.userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		b.logger.Warn("Operator not registered, shipment dropped",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", d.PointID))
		b.dropState(ctx, in.chatID)
		b.sendText(in.chatID, textShipmentAborted+" Отправьте /driver и повторите ввод.", nil)
		return
	}
	if err != nil {
		b.logger.Error("Failed to get operator",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	record := shipment.NewBuilder(d.PointID, operator.ID).AddDraft(d).Build(b.opts.Now())
	saved, err := b.store.CommitShipment(ctx, record)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrPointNotFound):
		b.dropState(ctx, in.chatID)
		b.sendError(in.chatID, fmt.Sprintf("Точка %04d больше не существует. Отгрузка не сохранена.", d.PointID))
		return
	default:
		// the draft is kept so the operator can confirm again
		b.logger.Error("Failed to commit shipment",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("point_id", d.PointID),
			zap.Error(err))
		b.sendError(in.chatID, "Не удалось сохранить отгрузку. Попробуйте подтвердить еще раз или отмените.")
		return
	}

	b.dropState(ctx, in.chatID)
	b.logger.Info("Shipment recorded",
		zap.Int64("chat_id", in.chatID),
		zap.Int64("shipment_id", saved.ID),
		zap.Int64("point_id", saved.PointID))
	b.sendText(in.chatID, fmt.Sprintf(
		"✅ Отгрузка #%d сохранена.\nОбщий вес: %s кг\nИтого к оплате: %s руб",
		saved.ID, saved.TotalWeight.String(), saved.TotalPay.StringFixed(2)),
		createDriverKeyboard())
	b.notifyPointUser(ctx, *saved)
}
