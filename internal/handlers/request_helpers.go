package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/timezone"
)

// --------------------------------------------------
// Path and body parsing
// --------------------------------------------------

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.Validation("invalid_id", "Invalid "+name)
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return httperr.Validation("invalid_request", "Invalid request body")
	}
	return nil
}

// --------------------------------------------------
// Dates
// --------------------------------------------------

// parseDate reads a YYYY-MM-DD calendar date. Calendar dates are stored
// at UTC midnight so they compare the same on every database.
func parseDate(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := timezone.ParseDate(*s, time.UTC)
	if err != nil {
		return nil, httperr.Validation("invalid_"+field, field+" must be YYYY-MM-DD")
	}
	return d, nil
}
