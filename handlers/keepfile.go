package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"keepfile/models"
	"keepfile/storage"
)

// ImageDir is the blob directory holding keepfile images.
const ImageDir = "keepfile/image"

type RecordStore interface {
	List(ctx context.Context) ([]models.Keepfile, error)
	Find(ctx context.Context, id uint) (models.Keepfile, error)
	Create(ctx context.Context, k *models.Keepfile) error
	Update(ctx context.Context, k models.Keepfile) (models.Keepfile, error)
	Delete(ctx context.Context, id uint) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type KeepfileHandler struct {
	records   RecordStore
	blobs     BlobStore
	validator *Validator
	logger    *slog.Logger
}

func NewKeepfileHandler(records RecordStore, blobs BlobStore, logger *slog.Logger) *KeepfileHandler {
	return &KeepfileHandler{
		records:   records,
		blobs:     blobs,
		validator: NewValidator(),
		logger:    logger,
	}
}

func (h *KeepfileHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/keepfiles")
	g.GET("", h.wrap(h.List))
	g.POST("", h.wrap(h.Create))
	g.GET("/:id", h.wrap(h.Show))
	g.PUT("/:id", h.wrap(h.Update))
	g.PATCH("/:id", h.wrap(h.Update))
	g.DELETE("/:id", h.wrap(h.Delete))
}

func (h *KeepfileHandler) List(c *gin.Context) (gin.H, error) {
	keepfiles, err := h.records.List(c.Request.Context())
	if err != nil {
		return nil, err
	}

	data := make([]gin.H, 0, len(keepfiles))
	for _, k := range keepfiles {
		data = append(data, keepfileResource(k))
	}

	return gin.H{
		"status":  true,
		"message": "Keep fetch successfully!",
		"data":    data,
	}, nil
}

func (h *KeepfileHandler) Create(c *gin.Context) (gin.H, error) {
	ctx := c.Request.Context()

	in, err := parseKeepfileInput(c)
	if err != nil {
		return nil, err
	}
	if err := h.validator.Validate(in); err != nil {
		return nil, err
	}

	k := models.Keepfile{Name: in.name, Desc: in.desc}
	if in.hasImage() {
		name, err := h.storeImage(ctx, in.image)
		if err != nil {
			return nil, err
		}
		k.Image = &name
	}

	if err := h.records.Create(ctx, &k); err != nil {
		return nil, err
	}

	h.logger.Info("Keepfile created", slog.Uint64("id", uint64(k.ID)), slog.Bool("image", k.Image != nil))
	return gin.H{
		"status":  true,
		"message": "Keepfile has been created successfully!",
		"success": k,
	}, nil
}

func (h *KeepfileHandler) Show(c *gin.Context) (gin.H, error) {
	k, err := h.lookup(c)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"status": true,
		"data":   k,
	}, nil
}

// Update writes the submitted fields first and the new image second; the two
// writes are not atomic.
func (h *KeepfileHandler) Update(c *gin.Context) (gin.H, error) {
	ctx := c.Request.Context()

	current, err := h.lookup(c)
	if err != nil {
		return nil, err
	}

	in, err := parseKeepfileInput(c)
	if err != nil {
		return nil, err
	}
	if err := h.validator.Validate(in); err != nil {
		return nil, err
	}

	next := current
	next.Name = in.name
	if in.descSet {
		next.Desc = in.desc
	}
	updated, err := h.records.Update(ctx, next)
	if err != nil {
		return nil, err
	}

	if !in.hasImage() {
		return gin.H{
			"status":  true,
			"message": "File updated successfully!",
			"data":    updated,
		}, nil
	}

	if updated.Image != nil {
		if err := h.removeImage(ctx, *updated.Image); err != nil {
			return nil, err
		}
	}

	name, err := h.storeImage(ctx, in.image)
	if err != nil {
		return nil, err
	}

	withImage := updated
	withImage.Image = &name
	updated, err = h.records.Update(ctx, withImage)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Keepfile image replaced", slog.Uint64("id", uint64(updated.ID)), slog.String("image", name))
	return gin.H{
		"status":    true,
		"message":   "File updated successfully!",
		"dataImage": updated,
	}, nil
}

func (h *KeepfileHandler) Delete(c *gin.Context) (gin.H, error) {
	ctx := c.Request.Context()

	k, err := h.lookup(c)
	if err != nil {
		return nil, err
	}

	if k.Image != nil {
		if err := h.removeImage(ctx, *k.Image); err != nil {
			return nil, err
		}
	}

	if err := h.records.Delete(ctx, k.ID); err != nil {
		return nil, err
	}

	h.logger.Info("Keepfile deleted", slog.Uint64("id", uint64(k.ID)))
	return gin.H{
		"status":  true,
		"message": "File deleted successfully!",
	}, nil
}

// lookup resolves the :id path parameter. Ids that cannot name a row are
// reported as not found.
func (h *KeepfileHandler) lookup(c *gin.Context) (models.Keepfile, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return models.Keepfile{}, models.ErrNotFound
	}
	return h.records.Find(c.Request.Context(), uint(id))
}

// storeImage writes the upload under a fresh name and returns that name.
func (h *KeepfileHandler) storeImage(ctx context.Context, upload *imageUpload) (string, error) {
	name := imageFileName(upload.header.Filename)

	f, err := upload.header.Open()
	if err != nil {
		return "", fmt.Errorf("open image upload: %w", err)
	}
	defer f.Close()

	if err := h.blobs.Put(ctx, storage.Key(ImageDir, name), f, upload.mime.String()); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return name, nil
}

// removeImage deletes a stored image. A blob that is already gone is skipped.
func (h *KeepfileHandler) removeImage(ctx context.Context, name string) error {
	key := storage.Key(ImageDir, name)

	exists, err := h.blobs.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check image: %w", err)
	}
	if !exists {
		h.logger.Warn("Keepfile image already missing", slog.String("key", key))
		return nil
	}

	if err := h.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// imageFileName keeps the original extension, case included.
func imageFileName(original string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id + filepath.Ext(original)
}
