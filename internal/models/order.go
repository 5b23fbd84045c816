package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusOnTheWay  OrderStatus = "ON_THE_WAY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentOnline     PaymentMethod = "ONLINE"
)

type Order struct {
	gorm.Model
	OrderNumber   string          `gorm:"uniqueIndex;not null" json:"orderNumber"`
	CustomerID    uint            `gorm:"index" json:"customerId"`
	Customer      *Customer       `json:"customer,omitempty"`
	BusinessID    uint            `gorm:"index" json:"businessId"`
	Business      *Business       `json:"business,omitempty"`
	CourierID     *uint           `gorm:"index" json:"courierId,omitempty"`
	Courier       *Courier        `json:"courier,omitempty"`
	Status        OrderStatus     `gorm:"index" json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Category      string          `gorm:"index" json:"category"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(12,2)" json:"deliveryFee"`
	Address       string          `json:"address"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
}
