package models

import "gorm.io/gorm"

type CourierStatus string

const (
	CourierStatusAvailable CourierStatus = "AVAILABLE"
	CourierStatusBusy      CourierStatus = "BUSY"
	CourierStatusOffline   CourierStatus = "OFFLINE"
)

// Courier is a delivery person. Rating is kept on a 0-5 scale.
type Courier struct {
	gorm.Model
	Name        string        `gorm:"not null" json:"name"`
	Email       string        `gorm:"index" json:"email"`
	Phone       string        `json:"phone"`
	VehicleType string        `json:"vehicleType"`
	Status      CourierStatus `gorm:"index" json:"status"`
	Rating      float64       `json:"rating"`
	Deliveries  []Delivery    `json:"deliveries,omitempty"`
}
