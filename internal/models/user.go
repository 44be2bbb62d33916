package models

import "time"

type UserType string

const (
	UserTypeOwner  UserType = "Owner"
	UserTypeAdmin  UserType = "Admin"
	UserTypeStaff  UserType = "Staff"
	UserTypeClient UserType = "Client"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeOwner, UserTypeAdmin, UserTypeStaff, UserTypeClient:
		return true
	}
	return false
}

type NotificationPref string

const (
	NotifyEmail NotificationPref = "email"
	NotifyNone  NotificationPref = "none"
)

func (p NotificationPref) Valid() bool {
	return p == NotifyEmail || p == NotifyNone
}

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:30" json:"phone"`

	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Type         UserType `gorm:"size:20;not null;default:'Staff'" json:"type"`

	NotificationPref NotificationPref `gorm:"size:10;not null;default:'email'" json:"notification_pref"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
