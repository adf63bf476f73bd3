package bot

import (
	"strings"

	"recycle-bot/internal/shipment"
)

const (
	StepRegistrationPoint = "registration_point"

	StepBagsCount        = "bags_count"
	StepBagsConfirmation = "bags_confirmation"

	StepCreatePointCode    = "create_point_code"
	StepCreatePointName    = "create_point_name"
	StepCreatePointOwner   = "create_point_owner"
	StepCreatePointPhone   = "create_point_phone"
	StepCreatePointAddress = "create_point_address"
	StepCreatePointConfirm = "create_point_confirm"

	StepDeletePointCode    = "delete_point_code"
	StepDeletePointConfirm = "delete_point_confirm"

	StepReportRegionID = "report_region_id"
)

var (
	StepShipmentPointID      = string(shipment.StepAwaitingPointID)
	StepShipmentCategory     = string(shipment.StepAwaitingCategory)
	StepShipmentWeight       = string(shipment.StepAwaitingWeight)
	StepShipmentPrice        = string(shipment.StepAwaitingPrice)
	StepShipmentConfirmation = string(shipment.StepAwaitingConfirmation)
)

// Callback data. Parameterized callbacks carry their argument after the last ':'.
const (
	cbBagFull     = "bag_full"
	cbAdminHelp   = "adm_help"
	cbBagsConfirm = "bags:confirm"
	cbBagsCancel  = "bags:cancel"
	cbCancel      = "cancel"

	cbAdminReports     = "admin:report"
	cbAdminExport      = "admin:export"
	cbAdminCreatePoint = "admin:create_point"
	cbAdminDeletePoint = "admin:delete_point"

	cbReportZone         = "report:zone"
	cbReportRegion       = "report:region"
	cbReportRegionDetail = "report:region_detail"
	cbReportPoints       = "report:points"

	cbPointConfirm = "point:confirm"
	cbPointCancel  = "point:cancel"

	cbDriverAddShipment = "driver:add_shipment"
	cbDriverRoute       = "driver:route"

	cbShipmentGroup    = "shp:group"
	cbShipmentMaterial = "shp:mat"
	cbShipmentBack     = "shp:back"
	cbShipmentFinish   = "shp:finish"
	cbShipmentCancel   = "shp:cancel"
	cbShipmentConfirm  = "shp:confirm"
)

func (b *Bot) registerHandlers() {
	b.handlers = map[string]textHandler{
		StepRegistrationPoint: b.handleRegistrationPoint,

		StepBagsCount:        b.handleBagsCount,
		StepBagsConfirmation: b.handleUseButtons,

		StepShipmentPointID:      b.handleShipmentPointID,
		StepShipmentCategory:     b.handleUseButtons,
		StepShipmentWeight:       b.handleShipmentWeight,
		StepShipmentPrice:        b.handleShipmentPrice,
		StepShipmentConfirmation: b.handleUseButtons,

		StepCreatePointCode:    b.handleCreatePointCode,
		StepCreatePointName:    b.handleCreatePointName,
		StepCreatePointOwner:   b.handleCreatePointOwner,
		StepCreatePointPhone:   b.handleCreatePointPhone,
		StepCreatePointAddress: b.handleCreatePointAddress,
		StepCreatePointConfirm: b.handleUseButtons,

		StepDeletePointCode:    b.handleDeletePointCode,
		StepDeletePointConfirm: b.handleUseButtons,

		StepReportRegionID: b.handleReportRegionID,
	}

	b.callbacks = map[string]callbackHandler{
		cbBagFull:     b.handleBagFull,
		cbAdminHelp:   b.handleAdminHelp,
		cbBagsConfirm: b.handleBagsConfirm,
		cbBagsCancel:  b.handleBagsCancel,
		cbCancel:      b.handleCancelCallback,

		cbAdminReports:     b.admin(b.handleReportsMenu),
		cbAdminExport:      b.admin(b.handleExport),
		cbAdminCreatePoint: b.admin(b.handleCreatePointStart),
		cbAdminDeletePoint: b.admin(b.handleDeletePointStart),

		cbReportZone:         b.admin(b.handleZoneReport),
		cbReportRegion:       b.admin(b.handleRegionReport),
		cbReportRegionDetail: b.admin(b.handleRegionDetailStart),
		cbReportPoints:       b.admin(b.handlePointsReport),

		cbPointConfirm: b.admin(b.handlePointConfirm),
		cbPointCancel:  b.admin(b.handlePointCancel),

		cbDriverAddShipment: b.driver(b.handleShipmentStart),
		cbDriverRoute:       b.driver(b.handleRoute),

		cbShipmentGroup:    b.driver(b.handleShipmentGroup),
		cbShipmentMaterial: b.driver(b.handleShipmentMaterial),
		cbShipmentBack:     b.driver(b.handleShipmentBack),
		cbShipmentFinish:   b.driver(b.handleShipmentFinish),
		cbShipmentCancel:   b.driver(b.handleShipmentCancel),
		cbShipmentConfirm:  b.driver(b.handleShipmentConfirm),
	}
}

// splitCallback separates "shp:mat:alum" into "shp:mat" and "alum".
// Data without an argument is returned whole.
func splitCallback(data string) (key, arg string) {
	for _, prefix := range []string{cbShipmentGroup, cbShipmentMaterial} {
		if rest, ok := strings.CutPrefix(data, prefix+":"); ok {
			return prefix, rest
		}
	}
	return data, ""
}
