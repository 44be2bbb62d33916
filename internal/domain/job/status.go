package job

import "github.com/BruksfildServices01/jobsite-manager/internal/httperr"

// ===============================
// Job Status
// ===============================

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// ===============================
// Validations
// ===============================

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusClosed:
		return Status(s), nil
	}
	return "", httperr.ErrBusiness("invalid_job_status")
}

// InitialStatus is the status of a newly created job.
func InitialStatus() Status {
	return StatusOpen
}
