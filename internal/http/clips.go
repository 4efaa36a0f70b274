package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/books"
	"github.com/clipshelf/clipshelf/internal/entities"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// ClipsController serves the captured-passage operations.
type ClipsController struct {
	store   *storage.Service
	service *books.Service
}

func NewClipsController(store *storage.Service, service *books.Service) *ClipsController {
	return &ClipsController{store: store, service: service}
}

// GetClips lists all clips, or the clips of one book when bookId is given.
func (cc *ClipsController) GetClips(c *gin.Context) {
	ctx := c.Request.Context()
	if bookID := c.Query("bookId"); bookID != "" {
		clips, err := cc.store.GetClipsByBookID(ctx, bookID)
		if err != nil {
			respondInternalError(c, "list clips", err)
			return
		}
		c.JSON(http.StatusOK, clips)
		return
	}
	clips, err := cc.store.GetAllClips(ctx)
	if err != nil {
		respondInternalError(c, "list clips", err)
		return
	}
	c.JSON(http.StatusOK, clips)
}

func (cc *ClipsController) GetClip(c *gin.Context) {
	clip, err := cc.store.GetClipByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondInternalError(c, "load clip", err)
		return
	}
	if clip == nil {
		respondNotFound(c, "clip")
		return
	}
	c.JSON(http.StatusOK, clip)
}

type clipRequest struct {
	BookID string `json:"bookId"`
	Text   string `json:"text"`
	Page   int    `json:"page"`
}

func respondClipValidation(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, books.ErrEmptyText):
		respondBadRequest(c, "clip text must not be empty")
	case errors.Is(err, books.ErrInvalidPage):
		respondBadRequest(c, "page must be 1 or greater")
	default:
		return false
	}
	return true
}

// CreateClip saves a captured passage.
func (cc *ClipsController) CreateClip(c *gin.Context) {
	var req clipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	clip, err := cc.service.SaveClip(c.Request.Context(), &entities.Clip{
		BookID: req.BookID,
		Text:   req.Text,
		Page:   req.Page,
	})
	if err != nil {
		if !respondClipValidation(c, err) {
			respondInternalError(c, "save clip", err)
		}
		return
	}
	c.JSON(http.StatusCreated, clip)
}

// UpdateClip edits the text and page of an existing clip in place.
func (cc *ClipsController) UpdateClip(c *gin.Context) {
	var req clipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	existing, err := cc.store.GetClipByID(ctx, c.Param("id"))
	if err != nil {
		respondInternalError(c, "load clip", err)
		return
	}
	if existing == nil {
		respondNotFound(c, "clip")
		return
	}

	existing.Text = req.Text
	existing.Page = req.Page
	if err := cc.service.UpdateClip(ctx, existing); err != nil {
		if !respondClipValidation(c, err) {
			respondInternalError(c, "update clip", err)
		}
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (cc *ClipsController) DeleteClip(c *gin.Context) {
	if err := cc.store.RemoveClip(c.Request.Context(), c.Param("id")); err != nil {
		respondInternalError(c, "delete clip", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "clip deleted"})
}
