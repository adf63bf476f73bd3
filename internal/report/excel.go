package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"recycle-bot/internal/materials"
	"recycle-bot/internal/model"
)

const (
	SheetRequests  = "Заявки"
	SheetShipments = "Отгрузки"
	SheetCombined  = "Общий"

	timeLayout = "2006-01-02 15:04"
)

var (
	requestHeaders = []string{"Мешки алюминий", "Мешки PET", "Мешки стекло", "Мешки прочие", "Всего мешков"}
	commonHeaders  = []string{"Дата", "Точка", "Пользователь", "Тип"}
)

// Workbook renders the requests, shipments and combined sheets as an .xlsx file.
func Workbook(catalog *materials.Catalog, requests []model.Request, shipments []model.Shipment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRequests); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetShipments, SheetCombined} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	shipmentHeaders := shipmentColumns(catalog)

	w := sheetWriter{f: f}
	w.row(SheetRequests, 1, concat(commonHeaders, requestHeaders))
	for i, r := range requests {
		w.row(SheetRequests, i+2, concat(requestCommon(r), requestValues(r)))
	}

	w.row(SheetShipments, 1, concat(commonHeaders, shipmentHeaders))
	for i, s := range shipments {
		w.row(SheetShipments, i+2, concat(shipmentCommon(s), shipmentValues(catalog, s)))
	}

	w.row(SheetCombined, 1, concat(commonHeaders, requestHeaders, shipmentHeaders))
	blankRequest := make([]any, len(requestHeaders))
	for i, e := range Merge(requests, shipments) {
		switch e.Kind {
		case KindRequest:
			w.row(SheetCombined, i+2, concat(requestCommon(*e.Request), requestValues(*e.Request)))
		case KindShipment:
			w.row(SheetCombined, i+2, concat(shipmentCommon(*e.Shipment), blankRequest, shipmentValues(catalog, *e.Shipment)))
		}
	}
	if w.err != nil {
		return nil, w.err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	for _, sheet := range []string{SheetRequests, SheetShipments, SheetCombined} {
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			return nil, fmt.Errorf("style header %s: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
			return nil, fmt.Errorf("column width %s: %w", sheet, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func shipmentColumns(catalog *materials.Catalog) []string {
	var cols []string
	for _, m := range catalog.Materials() {
		cols = append(cols, m.Title+" (кг)", m.Title+" цена", m.Title+" сумма")
	}
	return append(cols, "Общий вес", "Итого к оплате")
}

func requestCommon(r model.Request) []any {
	return []any{r.CreatedAt.Format(timeLayout), r.PointID, r.UserID, r.Activity}
}

func requestValues(r model.Request) []any {
	return []any{r.Aluminum, r.PET, r.Glass, r.Other, r.TotalBags()}
}

func shipmentCommon(s model.Shipment) []any {
	return []any{s.CreatedAt.Format(timeLayout), s.PointID, s.UserID, string(KindShipment)}
}

func shipmentValues(catalog *materials.Catalog, s model.Shipment) []any {
	var vals []any
	for _, m := range catalog.Materials() {
		it, ok := s.Item(m.Key)
		if !ok {
			vals = append(vals, nil, nil, nil)
			continue
		}
		vals = append(vals, it.WeightKg.InexactFloat64(), it.Price.InexactFloat64(), it.Total.InexactFloat64())
	}
	return append(vals, s.TotalWeight.InexactFloat64(), s.TotalPay.InexactFloat64())
}

func concat(parts ...any) []any {
	var out []any
	for _, p := range parts {
		switch v := p.(type) {
		case []any:
			out = append(out, v...)
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		}
	}
	return out
}

type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
}
