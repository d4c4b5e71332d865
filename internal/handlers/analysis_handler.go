package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/services"
	"github.com/vaibhav1874/TrueVail/internal/utils"
)

// DefaultMaxUploadBytes bounds uploaded media
const DefaultMaxUploadBytes int64 = 20 << 20

// AnalyzeRequest is the JSON body of POST /analyze
type AnalyzeRequest struct {
	Text  string       `json:"text"`
	Type  string       `json:"type"`
	Media *MediaUpload `json:"media,omitempty"`
}

// MediaUpload is base64 media embedded in a JSON request
type MediaUpload struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

type AnalysisHandler struct {
	analysisService services.AnalysisServiceInterface
	maxUploadBytes  int64
}

func NewAnalysisHandler(analysisService services.AnalysisServiceInterface, maxUploadBytes int64) *AnalysisHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &AnalysisHandler{
		analysisService: analysisService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// Analyze runs one analysis. Any decodable request gets a 200 with a result.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	correlationID := logger.CorrelationIDFromContext(c.Request.Context())

	var (
		req analysis.Request
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req, err = h.bindMultipart(c)
	} else {
		req, err = h.bindJSON(c)
	}
	if err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"content_type":   c.ContentType(),
			"error":          err.Error(),
		}).Warn("Invalid analysis request body")
		c.JSON(http.StatusBadRequest, analysis.ErrorResult(fmt.Sprintf("Could not read the request: %v.", err)))
		return
	}

	logger.Log.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"mode":           req.Mode,
		"input_length":   len(req.RawInput),
		"has_media":      req.Media != nil,
	}).Info("Analysis request received")

	result := h.analysisService.Analyze(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) bindJSON(c *gin.Context) (analysis.Request, error) {
	var body AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return analysis.Request{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	req := analysis.Request{RawInput: body.Text, Mode: requestMode(body.Type)}
	if body.Media != nil && body.Media.Data != "" {
		data, embeddedType, err := utils.DecodeMediaData(body.Media.Data)
		if err != nil {
			return analysis.Request{}, err
		}
		if int64(len(data)) > h.maxUploadBytes {
			return analysis.Request{}, fmt.Errorf("media exceeds %d bytes", h.maxUploadBytes)
		}
		mimeType := body.Media.MimeType
		if mimeType == "" {
			mimeType = embeddedType
		}
		if mimeType == "" {
			mimeType = utils.DetectMimeType(data, body.Media.Filename)
		}
		req.Media = &analysis.MediaPayload{Data: data, MimeType: mimeType, Filename: body.Media.Filename}
	}
	return req, nil
}

func (h *AnalysisHandler) bindMultipart(c *gin.Context) (analysis.Request, error) {
	req := analysis.Request{
		RawInput: c.PostForm("text"),
		Mode:     requestMode(c.PostForm("type")),
	}

	file, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return analysis.Request{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	if file.Size > h.maxUploadBytes {
		return analysis.Request{}, fmt.Errorf("file too large: %d bytes. Maximum: %d bytes", file.Size, h.maxUploadBytes)
	}

	data, err := readUpload(file, h.maxUploadBytes)
	if err != nil {
		return analysis.Request{}, err
	}
	req.Media = &analysis.MediaPayload{
		Data:     data,
		MimeType: utils.DetectMimeType(data, file.Filename),
		Filename: file.Filename,
	}
	return req, nil
}

func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file too large. Maximum: %d bytes", limit)
	}
	return data, nil
}

// requestMode defaults an empty type to news and leaves unknown types for the orchestrator to reject
func requestMode(raw string) analysis.Mode {
	mode, err := analysis.ParseMode(raw)
	if err != nil {
		return analysis.Mode(raw)
	}
	return mode
}
