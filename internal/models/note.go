package models

import "time"

// Note has no surrogate id: rows are addressed by (phase_id, created_at).
type Note struct {
	PhaseID uint   `gorm:"primaryKey;autoIncrement:false" json:"phase_id"`
	Phase   *Phase `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"primaryKey;autoCreateTime:false" json:"created_at"`

	Details string `gorm:"type:text;not null" json:"details"`

	CreatedBy uint  `gorm:"not null;index" json:"created_by"`
	Creator   *User `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE" json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NoteKey identifies a note.
type NoteKey struct {
	PhaseID   uint
	CreatedAt time.Time
}

// NoteTimestamp normalizes a timestamp to the precision the database keeps.
func NoteTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
