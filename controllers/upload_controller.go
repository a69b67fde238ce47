package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/middleware"
	"github.com/kendall-kelly/order-analytics-api/services"
	"github.com/kendall-kelly/order-analytics-api/utils"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the file size for
// boundaries and part headers
const multipartOverhead = 1 << 20

// UploadController handles order file uploads and upload history
type UploadController struct {
	processor *services.OrderProcessor
	store     *services.OrderStore
	archive   services.UploadArchive
	maxSize   int64
	logger    *zap.Logger
}

// NewUploadController creates an upload controller. archive may be nil.
func NewUploadController(processor *services.OrderProcessor, store *services.OrderStore, archive services.UploadArchive, maxSize int64, logger *zap.Logger) *UploadController {
	return &UploadController{
		processor: processor,
		store:     store,
		archive:   archive,
		maxSize:   maxSize,
		logger:    logger.Named("uploads"),
	}
}

// UploadOrders handles POST /api/v1/uploads/orders - replaces the dataset
// with the orders in the uploaded CSV or XLSX file
func (uc *UploadController) UploadOrders(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.maxSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE", "Uploaded file exceeds the maximum allowed size")
			return
		}
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "No file uploaded. Send the orders file in the 'file' form field")
		return
	}

	if err := utils.ValidateOrderFile(fileHeader, uc.maxSize); err != nil {
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			respondError(c, http.StatusBadRequest, fileErr.Code, fileErr.Message)
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
		return
	}

	data, err := utils.ReadUploadedFile(fileHeader, uc.maxSize)
	if err != nil {
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			respondError(c, http.StatusBadRequest, fileErr.Code, fileErr.Message)
			return
		}
		uc.logger.Error("failed to read uploaded file", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "FILE_READ_ERROR", "Failed to read uploaded file")
		return
	}

	uploadedBy, _ := middleware.GetUserID(c)
	outcome := uc.processor.Process(c.Request.Context(), services.Upload{
		FileName:   fileHeader.Filename,
		Data:       data,
		UploadedBy: uploadedBy,
	})

	status := http.StatusOK
	message := fmt.Sprintf("Successfully processed %d orders", outcome.RowsProcessed)
	if !outcome.Success {
		status = http.StatusBadRequest
		message = "Upload failed"
	}

	c.JSON(status, gin.H{
		"success":        outcome.Success,
		"rows_processed": outcome.RowsProcessed,
		"errors":         outcome.Errors,
		"upload_id":      outcome.UploadID,
		"message":        message,
	})
}

// ListUploads handles GET /api/v1/uploads - recent upload attempts
func (uc *UploadController) ListUploads(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	uploads, err := uc.store.ListUploads(c.Request.Context(), limit)
	if err != nil {
		uc.logger.Error("failed to list uploads", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve uploads")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    uploads,
	})
}

// GetUploadArchive handles GET /api/v1/uploads/:id/archive - a temporary
// download link for the raw file of one upload
func (uc *UploadController) GetUploadArchive(c *gin.Context) {
	if uc.archive == nil {
		respondError(c, http.StatusNotFound, "ARCHIVE_DISABLED", "Upload archiving is not configured")
		return
	}

	upload, found, err := uc.store.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		uc.logger.Error("failed to load upload", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve upload")
		return
	}
	if !found {
		respondError(c, http.StatusNotFound, "UPLOAD_NOT_FOUND", "Upload not found")
		return
	}
	if upload.ArchiveKey == nil {
		respondError(c, http.StatusNotFound, "ARCHIVE_NOT_FOUND", "No archived file for this upload")
		return
	}

	url, err := uc.archive.ArchiveURL(c.Request.Context(), *upload.ArchiveKey)
	if err != nil {
		uc.logger.Error("failed to generate archive url", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "ARCHIVE_ERROR", "Failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"upload_id":    upload.ID,
			"file_name":    upload.FileName,
			"download_url": url,
		},
	})
}
