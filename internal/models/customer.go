package models

import "gorm.io/gorm"

type Customer struct {
	gorm.Model
	Name    string  `gorm:"not null" json:"name"`
	Email   string  `gorm:"index" json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Orders  []Order `json:"orders,omitempty"`
}
