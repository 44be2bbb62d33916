package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
)

type FloorplanHandler struct {
	jobs  domain.Repository
	store storage.ObjectStore
	log   logger.Logger
}

func NewFloorplanHandler(jobs domain.Repository, store storage.ObjectStore, log logger.Logger) *FloorplanHandler {
	return &FloorplanHandler{jobs: jobs, store: store, log: log}
}

type CopyFloorplansRequest struct {
	SourceJobID uint `json:"source_job_id"`
}

func floorplanKey(jobID uint, ext string) string {
	return fmt.Sprintf("jobs/%d/floorplans/%s.%s", jobID, uuid.NewString(), ext)
}

func (h *FloorplanHandler) List(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	jobID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	j, err := h.jobs.GetJob(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if !domain.CanView(p.Type, p.ID, j) {
		return httperr.NotFoundErr("job_not_found", "Job not found")
	}

	var rows []models.Floorplan
	if err := tx.Where("job_id = ?", jobID).Order("created_at, id").Find(&rows).Error; err != nil {
		return err
	}

	out := make([]dto.Floorplan, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FloorplanFrom(&rows[i]))
	}
	httpresp.List(c, out)
	return nil
}

// Upload stores a multipart "file". Raster images are resized and
// re-encoded as WebP before storing.
func (h *FloorplanHandler) Upload(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	jobID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		return httperr.Validation("file_required", "A file is required")
	}
	if fh.Size > storage.MaxUploadBytes {
		return httperr.Validation("file_too_large", "File must be 20 MB or smaller")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxUploadBytes+1))
	if err != nil {
		return err
	}
	if len(data) > storage.MaxUploadBytes {
		return httperr.Validation("file_too_large", "File must be 20 MB or smaller")
	}

	normalized, err := storage.NormalizeUpload(data)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return httperr.Validation("unsupported_file_type", "Only PNG, JPEG, WebP and PDF files are accepted")
	}
	if err != nil {
		return httperr.Validation("invalid_image", "The image could not be read")
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)
	if _, err := h.jobs.GetJob(ctx, tx, jobID); err != nil {
		return err
	}

	key := floorplanKey(jobID, normalized.Ext)
	url, err := h.store.Put(ctx, key, bytes.NewReader(normalized.Data), int64(len(normalized.Data)), normalized.ContentType)
	if err != nil {
		return err
	}

	row := models.Floorplan{
		JobID:       jobID,
		Name:        displayName(fh.Filename, normalized.Ext),
		ObjectKey:   key,
		URL:         url,
		ContentType: normalized.ContentType,
		Size:        int64(len(normalized.Data)),
	}
	if err := tx.Create(&row).Error; err != nil {
		storage.DeleteKeys(ctx, h.store, h.log, []string{key})
		return err
	}

	httpresp.Created(c, dto.FloorplanFrom(&row))
	return nil
}

// Copy duplicates every floorplan of another job into this one.
func (h *FloorplanHandler) Copy(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	jobID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req CopyFloorplansRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.SourceJobID == 0 || req.SourceJobID == jobID {
		return httperr.Validation("invalid_source_job", "source_job_id must name another job")
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	if _, err := h.jobs.GetJob(ctx, tx, jobID); err != nil {
		return err
	}
	if _, err := h.jobs.GetJob(ctx, tx, req.SourceJobID); err != nil {
		return err
	}

	var sources []models.Floorplan
	if err := tx.Where("job_id = ?", req.SourceJobID).Order("created_at, id").Find(&sources).Error; err != nil {
		return err
	}

	copies := make([]models.Floorplan, 0, len(sources))
	keys := make([]string, 0, len(sources))
	for _, src := range sources {
		key := floorplanKey(jobID, strings.TrimPrefix(path.Ext(src.ObjectKey), "."))
		url, err := h.store.Copy(ctx, src.ObjectKey, key)
		if err != nil {
			storage.DeleteKeys(ctx, h.store, h.log, keys)
			return err
		}
		keys = append(keys, key)
		copies = append(copies, models.Floorplan{
			JobID:       jobID,
			Name:        src.Name,
			ObjectKey:   key,
			URL:         url,
			ContentType: src.ContentType,
			Size:        src.Size,
		})
	}

	if len(copies) > 0 {
		err := db.WithTransaction(ctx, conn, func(tx *gorm.DB) error {
			return tx.Create(&copies).Error
		})
		if err != nil {
			storage.DeleteKeys(ctx, h.store, h.log, keys)
			return err
		}
	}

	out := make([]dto.Floorplan, 0, len(copies))
	for i := range copies {
		out = append(out, dto.FloorplanFrom(&copies[i]))
	}
	c.JSON(http.StatusCreated, httpresp.ListResponse[dto.Floorplan]{Data: out, Total: len(out)})
	return nil
}

// Delete removes the row first; a failed object delete only leaves an
// orphaned file.
func (h *FloorplanHandler) Delete(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	var row models.Floorplan
	err = tx.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.NotFoundErr("floorplan_not_found", "Floorplan not found")
	}
	if err != nil {
		return err
	}

	if err := tx.Delete(&models.Floorplan{}, id).Error; err != nil {
		return err
	}
	storage.DeleteKeys(ctx, h.store, h.log, []string{row.ObjectKey})

	c.JSON(http.StatusOK, gin.H{"message": "Floorplan deleted"})
	return nil
}

func displayName(filename, ext string) string {
	name := strings.TrimSpace(path.Base(filename))
	if name == "" || name == "." || name == "/" {
		name = "floorplan"
	}
	if ext == "webp" {
		if old := path.Ext(name); old != "" && old != ".webp" {
			name = strings.TrimSuffix(name, old) + ".webp"
		}
	}
	return name
}
