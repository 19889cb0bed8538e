package domain

import "time"

type UserRole string

const (
	RoleTourist UserRole = "tourist"
	RoleGuide   UserRole = "guide"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);index;not null" json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `gorm:"type:text" json:"bio,omitempty"`
	ProfilePic   string    `json:"profile_pic,omitempty"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
