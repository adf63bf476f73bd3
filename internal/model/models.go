// Package model defines the rows persisted by the recycling bot.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles stored in users.role.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// SentinelTelegramID identifies the reserved user that keeps shipments of deleted points.
const SentinelTelegramID int64 = 0

// Request activities.
const (
	ActivityBagFull   = "bag_full"
	ActivityAdminHelp = "admin_help"
)

// User is a chat account, optionally bound to one point.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Role       string    `db:"role"`
	PointID    *int64    `db:"point_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Region is the top-level grouping, identified by the first digit of a point code.
type Region struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Zone belongs to one region. Its id is region*100 + zone number.
type Zone struct {
	ID       int64  `db:"id"`
	RegionID int64  `db:"region_id"`
	Name     string `db:"name"`
}

// Point is a collection site identified by its 4-digit code.
type Point struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	OwnerName string    `db:"owner_name"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	BagsCount int       `db:"bags_count"`
	ZoneID    int64     `db:"zone_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Request is a point reporting bags ready for pickup or asking for a manager.
type Request struct {
	ID        int64     `db:"id"`
	PointID   int64     `db:"point_id"`
	UserID    int64     `db:"user_id"`
	Activity  string    `db:"activity"`
	Aluminum  int       `db:"aluminum_bags"`
	PET       int       `db:"pet_bags"`
	Glass     int       `db:"glass_bags"`
	Other     int       `db:"other_bags"`
	Question  *string   `db:"question"`
	CreatedAt time.Time `db:"created_at"`
}

// TotalBags sums the bag counts of all categories.
func (r Request) TotalBags() int {
	return r.Aluminum + r.PET + r.Glass + r.Other
}

// ShipmentItem is the weighed and priced part of a shipment for one material.
type ShipmentItem struct {
	ShipmentID int64           `db:"shipment_id"`
	Material   string          `db:"material"`
	WeightKg   decimal.Decimal `db:"weight_kg"`
	Price      decimal.Decimal `db:"price"`
	Total      decimal.Decimal `db:"total"`
}

// Shipment is a recorded pickup. Totals are derived from the items.
type Shipment struct {
	ID          int64           `db:"id"`
	PointID     int64           `db:"point_id"`
	UserID      int64           `db:"user_id"`
	TotalWeight decimal.Decimal `db:"total_weight"`
	TotalPay    decimal.Decimal `db:"total_pay"`
	CreatedAt   time.Time       `db:"created_at"`
	Items       []ShipmentItem  `db:"-"`
}

// Item returns the item recorded for material, if any.
func (s Shipment) Item(material string) (ShipmentItem, bool) {
	for _, it := range s.Items {
		if it.Material == material {
			return it, true
		}
	}
	return ShipmentItem{}, false
}
