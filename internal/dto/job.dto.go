package dto

import (
	"time"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type JobSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	ClientID    uint      `json:"client_id"`
	ClientName  string    `json:"client_name"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type JobDetail struct {
	JobSummary
	Phases     []PhaseDetail `json:"phases"`
	Floorplans []Floorplan   `json:"floorplans"`
}

type PhaseDetail struct {
	ID          uint       `json:"id"`
	JobID       uint       `json:"job_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedBy   uint       `json:"created_by"`
	Tasks       []WorkItem `json:"tasks"`
	Materials   []WorkItem `json:"materials"`
	Notes       []Note     `json:"notes"`
}

func JobSummaryFrom(j *models.Job) JobSummary {
	out := JobSummary{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Location:    j.Location,
		Status:      j.Status,
		ClientID:    j.ClientID,
		CreatedBy:   j.CreatedBy,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.Client != nil {
		out.ClientName = j.Client.FullName()
	}
	return out
}

func PhaseDetailFrom(p *models.Phase) PhaseDetail {
	return PhaseDetail{
		ID:          p.ID,
		JobID:       p.JobID,
		Title:       p.Title,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedBy:   p.CreatedBy,
		Tasks:       []WorkItem{},
		Materials:   []WorkItem{},
		Notes:       []Note{},
	}
}
