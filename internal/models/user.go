package models

import (
	"gorm.io/gorm"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
	RoleCourier  Role = "courier"
	RoleCustomer Role = "customer"
)

const (
	PermReportsCreate   = "reports:create"
	PermReportsView     = "reports:view"
	PermReportsSchedule = "reports:schedule"
)

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"not null" json:"role"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleBusiness:
		return action == PermReportsCreate || action == PermReportsView || action == PermReportsSchedule
	case RoleCourier, RoleCustomer:
		return action == PermReportsView
	default:
		return false
	}
}
