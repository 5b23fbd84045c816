package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliveryStatusAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryStatusPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
)

// Delivery is one courier run for an order. DurationMs is pickup to
// drop-off.
type Delivery struct {
	gorm.Model
	OrderID     uint            `gorm:"index" json:"orderId"`
	Order       *Order          `json:"order,omitempty"`
	CourierID   uint            `gorm:"index" json:"courierId"`
	Courier     *Courier        `json:"courier,omitempty"`
	Status      DeliveryStatus  `gorm:"index" json:"status"`
	PickedUpAt  *time.Time      `json:"pickedUpAt,omitempty"`
	DeliveredAt *time.Time      `json:"deliveredAt,omitempty"`
	DurationMs  int64           `json:"durationMs"`
	DistanceKm  float64         `json:"distanceKm"`
	Earnings    decimal.Decimal `gorm:"type:decimal(12,2)" json:"earnings"`
}
