package models

import "time"

// Work item statuses shared by tasks and materials.
const (
	StatusIncomplete = "Incomplete"
	StatusComplete   = "Complete"
)

type Task struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PhaseID uint   `gorm:"not null;index" json:"phase_id"`
	Phase   *Phase `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:20;not null;default:'Incomplete'" json:"status"`
	DueDate     *time.Time `gorm:"index" json:"due_date"`

	CreatedBy uint  `gorm:"not null;index" json:"created_by"`
	Creator   *User `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Material struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PhaseID uint   `gorm:"not null;index" json:"phase_id"`
	Phase   *Phase `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:20;not null;default:'Incomplete'" json:"status"`
	DueDate     *time.Time `gorm:"index" json:"due_date"`

	CreatedBy uint  `gorm:"not null;index" json:"created_by"`
	Creator   *User `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskAssignment is a row of the user_task join table.
type TaskAssignment struct {
	TaskID uint  `gorm:"primaryKey;autoIncrement:false" json:"task_id"`
	Task   *Task `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	UserID uint  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"-"`

	AssignedBy uint  `gorm:"not null;index" json:"assigned_by"`
	Assigner   *User `gorm:"foreignKey:AssignedBy;constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (TaskAssignment) TableName() string { return "user_task" }

// MaterialAssignment is a row of the user_material join table.
type MaterialAssignment struct {
	MaterialID uint      `gorm:"primaryKey;autoIncrement:false" json:"material_id"`
	Material   *Material `gorm:"constraint:OnUpdate:CASCADE" json:"-"`

	UserID uint  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"-"`

	AssignedBy uint  `gorm:"not null;index" json:"assigned_by"`
	Assigner   *User `gorm:"foreignKey:AssignedBy;constraint:OnUpdate:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (MaterialAssignment) TableName() string { return "user_material" }
