package models

import "time"

type Floorplan struct {
	ID uint `gorm:"primaryKey" json:"id"`

	JobID uint `gorm:"not null;index" json:"job_id"`
	Job   *Job `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	Name        string `gorm:"size:255;not null" json:"name"`
	ObjectKey   string `gorm:"size:500;not null;uniqueIndex" json:"-"`
	URL         string `gorm:"size:1000;not null" json:"url"`
	ContentType string `gorm:"size:100" json:"content_type"`
	Size        int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}
