package models

import "gorm.io/gorm"

type Business struct {
	gorm.Model
	Name     string  `gorm:"not null" json:"name"`
	Email    string  `gorm:"index" json:"email"`
	Phone    string  `json:"phone"`
	Category string  `gorm:"index" json:"category"`
	Address  string  `json:"address"`
	IsActive bool    `gorm:"default:true" json:"isActive"`
	Orders   []Order `json:"orders,omitempty"`
}
