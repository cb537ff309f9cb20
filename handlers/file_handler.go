package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"mietrecht-backend/service"
)

// FileHandler accepts documents for analysis and serves archived ones
type FileHandler struct {
	analysis    *service.AnalysisService
	maxFileSize int64
}

// NewFileHandler creates a new file handler
func NewFileHandler(analysis *service.AnalysisService) *FileHandler {
	return &FileHandler{
		analysis:    analysis,
		maxFileSize: service.MaxDocumentSize,
	}
}

// DocumentRequest is the JSON form of a document upload
type DocumentRequest struct {
	FileContent string `json:"file_content" binding:"required"`
	MimeType    string `json:"mime_type"`
	Filename    string `json:"filename"`
}

// AnalyzeDocument handles POST /api/analyze-document. It accepts either a
// JSON body with base64 content or a multipart form with a "file" field.
func (h *FileHandler) AnalyzeDocument(c *gin.Context) {
	// base64 inflates by 4/3; leave room for the JSON envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize*4/3+64<<10)

	var req service.AnalyzeDocumentRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondBadRequest(c, "file is required")
			return
		}
		if fileHeader.Size > h.maxFileSize {
			respondBadRequest(c, fmt.Sprintf("file size exceeds maximum of %d bytes", h.maxFileSize))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, fmt.Errorf("failed to open upload: %w", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
		if err != nil {
			respondError(c, fmt.Errorf("failed to read upload: %w", err))
			return
		}
		req = service.AnalyzeDocumentRequest{
			Data:     data,
			MimeType: fileHeader.Header.Get("Content-Type"),
			Filename: fileHeader.Filename,
		}
	} else {
		var body DocumentRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		data, err := decodeBase64(body.FileContent)
		if err != nil {
			respondBadRequest(c, "file_content is not valid base64")
			return
		}
		req = service.AnalyzeDocumentRequest{
			Data:     data,
			MimeType: body.MimeType,
			Filename: body.Filename,
		}
	}

	if req.MimeType == "application/octet-stream" {
		req.MimeType = ""
	}

	result, err := h.analysis.AnalyzeDocument(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// decodeBase64 accepts plain base64 and data URLs
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return data, nil
}

// GetDocument handles GET /api/documents/*path
func (h *FileHandler) GetDocument(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")

	reader, err := h.analysis.OpenDocument(c.Request.Context(), storagePath)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(storagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(storagePath)))
	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}
