package dto

import (
	"time"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// WorkItem is a task or a material.
type WorkItem struct {
	ID          uint       `json:"id"`
	PhaseID     uint       `json:"phase_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   uint       `json:"created_by"`
	Assignees   []Assignee `json:"assignees"`
}

type Assignee struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func AssigneeFrom(u *models.User) Assignee {
	return Assignee{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type Note struct {
	PhaseID    uint      `json:"phase_id"`
	CreatedAt  time.Time `json:"created_at"`
	Details    string    `json:"details"`
	CreatedBy  uint      `json:"created_by"`
	AuthorName string    `json:"author_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NoteFrom(n *models.Note) Note {
	out := Note{
		PhaseID:   n.PhaseID,
		CreatedAt: n.CreatedAt,
		Details:   n.Details,
		CreatedBy: n.CreatedBy,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Creator != nil {
		out.AuthorName = n.Creator.FullName()
	}
	return out
}

type Floorplan struct {
	ID          uint      `json:"id"`
	JobID       uint      `json:"job_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func FloorplanFrom(f *models.Floorplan) Floorplan {
	return Floorplan{
		ID:          f.ID,
		JobID:       f.JobID,
		Name:        f.Name,
		URL:         f.URL,
		ContentType: f.ContentType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}

// CalendarEntry is a task or material due on a given day.
type CalendarEntry struct {
	Kind       string    `json:"kind"`
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	DueDate    time.Time `json:"due_date"`
	PhaseID    uint      `json:"phase_id"`
	PhaseTitle string    `json:"phase_title"`
	JobID      uint      `json:"job_id"`
	JobTitle   string    `json:"job_title"`
}
