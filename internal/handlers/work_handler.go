package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	ucWork "github.com/BruksfildServices01/jobsite-manager/internal/usecase/work"
)

// WorkHandler serves tasks or materials; both have the same routes.
type WorkHandler struct {
	kind     work.Kind
	createUC *ucWork.CreateItem
	updateUC *ucWork.UpdateItem
	statusUC *ucWork.SetStatus
	deleteUC *ucWork.DeleteItem
}

func NewWorkHandler(
	kind work.Kind,
	createUC *ucWork.CreateItem,
	updateUC *ucWork.UpdateItem,
	statusUC *ucWork.SetStatus,
	deleteUC *ucWork.DeleteItem,
) *WorkHandler {
	return &WorkHandler{
		kind:     kind,
		createUC: createUC,
		updateUC: updateUC,
		statusUC: statusUC,
		deleteUC: deleteUC,
	}
}

type WorkItemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      string  `json:"status"`
	Assignees   *[]uint `json:"assignees"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func (r WorkItemRequest) input() (ucWork.ItemInput, error) {
	due, err := parseDate(r.DueDate, "due_date")
	if err != nil {
		return ucWork.ItemInput{}, err
	}

	in := ucWork.ItemInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     due,
		Status:      r.Status,
	}
	if r.Assignees != nil {
		in.Assignees = *r.Assignees
		if in.Assignees == nil {
			in.Assignees = []uint{}
		}
	}
	return in, nil
}

// Create handles POST /phases/:id/<kind>s.
func (h *WorkHandler) Create(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	phaseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req WorkItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	item, err := h.createUC.Execute(c.Request.Context(), conn, p, h.kind, phaseID, in)
	if err != nil {
		return err
	}

	httpresp.Created(c, item)
	return nil
}

func (h *WorkHandler) Update(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req WorkItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	item, err := h.updateUC.Execute(c.Request.Context(), conn, p, h.kind, id, in)
	if err != nil {
		return err
	}

	httpresp.OK(c, item)
	return nil
}

func (h *WorkHandler) SetStatus(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.statusUC.Execute(c.Request.Context(), conn, p, h.kind, id, req.Status); err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
	return nil
}

func (h *WorkHandler) Delete(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.deleteUC.Execute(c.Request.Context(), conn, p, h.kind, id); err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	return nil
}
