package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/timezone"
	ucJob "github.com/BruksfildServices01/jobsite-manager/internal/usecase/job"
)

type CalendarHandler struct {
	listUC   *ucJob.ListCalendar
	timezone string
}

func NewCalendarHandler(listUC *ucJob.ListCalendar, tz string) *CalendarHandler {
	return &CalendarHandler{listUC: listUC, timezone: tz}
}

// Month lists work due in ?year=&month=, defaulting to the current month
// in the configured timezone.
func (h *CalendarHandler) Month(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	now := timezone.NowIn(h.timezone)

	year := now.Year()
	if s := c.Query("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 2000 || v > 2100 {
			return httperr.Validation("invalid_year", "Invalid year")
		}
		year = v
	}

	month := int(now.Month())
	if s := c.Query("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 12 {
			return httperr.Validation("invalid_month", "Invalid month")
		}
		month = v
	}

	entries, err := h.listUC.Execute(c.Request.Context(), conn, p, year, month)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{
		"year":    year,
		"month":   month,
		"entries": entries,
	})
	return nil
}
