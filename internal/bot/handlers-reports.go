package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recycle-bot/internal/model"
	"recycle-bot/internal/report"
	redisstore "recycle-bot/internal/storage/redis"
)

func (b *Bot) handleReportsMenu(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	b.sendText(in.chatID, "Выберите тип отчета:", createReportKeyboard())
}

func (b *Bot) sendChunks(chatID int64, header string, lines []string) {
	for _, chunk := range report.Chunk(header, lines, b.opts.ReportChunkSize) {
		b.sendText(chatID, chunk, nil)
	}
}

func (b *Bot) handleZoneReport(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	zones, err := b.store.ZoneStats(ctx)
	if err != nil {
		b.logger.Error("Failed to build zone report",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}
	if len(zones) == 0 {
		b.sendText(in.chatID, "Нет данных по зонам.", nil)
		return
	}
	b.sendChunks(in.chatID, "📊 Отчет по зонам:", report.FormatZones(zones))
}

func (b *Bot) handleRegionReport(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	regions, zones, ok := b.loadRegionData(ctx, in)
	if !ok {
		return
	}
	stats := report.RollupRegions(regions, zones)
	if len(stats) == 0 {
		b.sendText(in.chatID, "Нет данных по регионам.", nil)
		return
	}
	b.sendChunks(in.chatID, "📊 Отчет по регионам:", report.FormatRegions(stats))
}

func (b *Bot) handleRegionDetailStart(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	if !b.saveState(ctx, in.chatID, &redisstore.UserState{Step: StepReportRegionID}) {
		return
	}
	b.sendText(in.chatID, "Введите номер региона:", createCancelKeyboard())
}

func (b *Bot) handleReportRegionID(ctx context.Context, in input, _ *redisstore.UserState) {
	regionID, err := strconv.ParseInt(strings.TrimSpace(in.text), 10, 64)
	if err != nil || regionID < 1 || regionID > 9 {
		b.sendError(in.chatID, "Номер региона должен быть цифрой от 1 до 9.")
		return
	}

	regions, zones, ok := b.loadRegionData(ctx, in)
	if !ok {
		return
	}
	b.dropState(ctx, in.chatID)

	detail, err := report.RegionDetail(regionID, regions, zones)
	switch {
	case errors.Is(err, report.ErrRegionNotFound):
		b.sendError(in.chatID, fmt.Sprintf("Регион %d не найден.", regionID))
		return
	case errors.Is(err, report.ErrRegionEmpty):
		b.sendError(in.chatID, fmt.Sprintf("В регионе %d нет зон с точками.", regionID))
		return
	case err != nil:
		b.logger.Error("Failed to build region detail",
			zap.Int64("chat_id", in.chatID),
			zap.Int64("region_id", regionID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	b.sendChunks(in.chatID,
		fmt.Sprintf("📊 Детальный отчет по региону %d:", regionID),
		report.FormatRegionDetail(detail))
}

func (b *Bot) handlePointsReport(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	pts, ok := b.loadPoints(ctx, in)
	if !ok {
		return
	}
	if len(pts) == 0 {
		b.sendText(in.chatID, "Нет данных по точкам.", nil)
		return
	}
	b.sendChunks(in.chatID, "📍 Отчет по точкам:", report.FormatPoints(pts))
}

// handleRoute lists the points with bags waiting for pickup.
func (b *Bot) handleRoute(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	pts, ok := b.loadPoints(ctx, in)
	if !ok {
		return
	}
	route := report.Route(pts)
	if len(route) == 0 {
		b.sendText(in.chatID, "Нет точек с мешками для сбора.", createDriverKeyboard())
		return
	}
	b.sendChunks(in.chatID, "🚚 Ваш маршрут:", report.FormatRoute(route))
}

func (b *Bot) loadPoints(ctx context.Context, in input) ([]model.Point, bool) {
	pts, err := b.store.ListPoints(ctx)
	if err != nil {
		b.logger.Error("Failed to list points",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return nil, false
	}
	return pts, true
}

func (b *Bot) loadRegionData(ctx context.Context, in input) ([]model.Region, []report.ZoneStat, bool) {
	regions, err := b.store.ListRegions(ctx)
	if err != nil {
		b.logger.Error("Failed to list regions",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return nil, nil, false
	}
	zones, err := b.store.ZoneStats(ctx)
	if err != nil {
		b.logger.Error("Failed to load zone stats",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return nil, nil, false
	}
	return regions, zones, true
}

// handleExport sends every request and shipment as an Excel workbook.
func (b *Bot) handleExport(ctx context.Context, in input, _ *redisstore.UserState, _ string) {
	requests, err := b.store.ListRequests(ctx)
	if err != nil {
		b.logger.Error("Failed to list requests",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}
	shipments, err := b.store.ListShipments(ctx)
	if err != nil {
		b.logger.Error("Failed to list shipments",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}
	if len(requests) == 0 && len(shipments) == 0 {
		b.sendText(in.chatID, "Нет данных для формирования отчета.", nil)
		return
	}

	data, err := report.Workbook(b.catalog, requests, shipments)
	if err != nil {
		b.logger.Error("Failed to build workbook",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, textInternalError)
		return
	}

	doc := tgbotapi.NewDocument(in.chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("report_%s.xlsx", b.opts.Now().Format("20060102_150405")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Заявок: %d, отгрузок: %d", len(requests), len(shipments))
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("Failed to send report",
			zap.Int64("chat_id", in.chatID),
			zap.Error(err))
		b.sendError(in.chatID, "Не удалось отправить файл отчета.")
	}
}
