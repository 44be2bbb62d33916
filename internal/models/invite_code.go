package models

import "time"

// SharedInviteCodeID is the fixed key of the only invite_codes row.
const SharedInviteCodeID uint = 1

// InviteCode is a single shared row holding the current registration code.
type InviteCode struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:32;not null" json:"code"`

	UpdatedBy *uint `gorm:"index" json:"updated_by"`
	Updater   *User `gorm:"foreignKey:UpdatedBy;constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
