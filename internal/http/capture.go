package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/ocr"
	"github.com/clipshelf/clipshelf/internal/selection"
)

// TextExtractor is the OCR adapter dependency.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, area *selection.Area) ocr.ExtractResult
}

// CaptureController turns an uploaded capture (plus an optional confirmed
// selection area) into recognized text.
type CaptureController struct {
	extractor TextExtractor
}

func NewCaptureController(extractor TextExtractor) *CaptureController {
	return &CaptureController{extractor: extractor}
}

// parseArea reads the selection area from multipart form fields. All six
// fields must be present for an area to apply; otherwise the full image is
// recognized.
func parseArea(c *gin.Context) (*selection.Area, bool) {
	fields := []string{"x", "y", "width", "height", "imageWidth", "imageHeight"}
	values := make([]float64, len(fields))
	seen := 0
	for i, name := range fields {
		raw := c.PostForm(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
		seen++
	}
	if seen == 0 {
		return nil, true
	}
	if seen != len(fields) {
		return nil, false
	}
	return &selection.Area{
		X:           values[0],
		Y:           values[1],
		Width:       values[2],
		Height:      values[3],
		ImageWidth:  values[4],
		ImageHeight: values[5],
	}, true
}

// Extract recognizes text in the uploaded image. The OCR adapter never
// fails; recognition problems come back as a 200 with an error field, which
// the capture screen renders alongside its manual retry action.
func (cc *CaptureController) Extract(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		respondBadRequest(c, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(c, "could not read image file")
		return
	}

	area, ok := parseArea(c)
	if !ok {
		respondBadRequest(c, "selection area requires x, y, width, height, imageWidth and imageHeight")
		return
	}

	result := cc.extractor.ExtractText(c.Request.Context(), data, area)
	c.JSON(http.StatusOK, result)
}
