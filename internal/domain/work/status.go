package work

import (
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// ===============================
// Task / Material Status
// ===============================

type Status string

const (
	StatusIncomplete Status = models.StatusIncomplete
	StatusComplete   Status = models.StatusComplete
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusIncomplete, StatusComplete:
		return Status(s), nil
	}
	return "", httperr.ErrBusiness("invalid_status")
}

// CanChangeStatus reports whether a user of type t may flip completion.
func CanChangeStatus(t models.UserType) error {
	if t == models.UserTypeClient {
		return httperr.ForbiddenErr("forbidden", "Clients cannot change status")
	}
	return nil
}

// Kind distinguishes the two work item tables that share one shape.
type Kind string

const (
	KindTask     Kind = "task"
	KindMaterial Kind = "material"
)
