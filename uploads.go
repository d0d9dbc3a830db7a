package main

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/audit_backend/config"
	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/utils"
	"github.com/mmdatafocus/audit_backend/workflow"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

var uploadMimeTypes = map[string]bool{
	"text/csv":         true,
	"text/plain":       true,
	"application/json": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream":                                          true,
	"": true,
}

// ingestHandler accepts a multipart batch of record files. Files are fully
// read up front and handed to the ingestion workflow in form order.
func ingestHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
			return
		}
		fileHeaders := form.File["files"]
		if len(fileHeaders) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required (field: files)"})
			return
		}

		files := make([]workflow.IngestFile, 0, len(fileHeaders))
		for _, fh := range fileHeaders {
			if fh.Size > maxUploadSizeBytes {
				c.JSON(http.StatusBadRequest, gin.H{"error": fh.Filename + " exceeds 5MB limit"})
				return
			}
			mimeType := strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0])
			if !uploadMimeTypes[strings.ToLower(mimeType)] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type: " + mimeType})
				return
			}

			src, err := fh.Open()
			if err != nil {
				config.LogError(logger, "uploads.go", "ingestHandler", "Open file", fh.Filename, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
				return
			}
			content, err := io.ReadAll(io.LimitReader(src, maxUploadSizeBytes+1))
			src.Close()
			if err != nil {
				config.LogError(logger, "uploads.go", "ingestHandler", "Read file", fh.Filename, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
				return
			}
			if int64(len(content)) > maxUploadSizeBytes {
				c.JSON(http.StatusBadRequest, gin.H{"error": fh.Filename + " exceeds 5MB limit"})
				return
			}

			files = append(files, workflow.IngestFile{
				Name:    fh.Filename,
				Format:  detectSourceFormat(fh.Filename, mimeType, content),
				Content: content,
			})
		}

		outcome := workflow.IngestBatch(c.Request.Context(), store, files)

		logger.WithFields(logrus.Fields{
			"file_count":         len(files),
			"nothing_recognized": outcome.NothingRecognized,
			"correlation_id":     correlationId,
		}).Info("[ingest.batch]")

		status := http.StatusOK
		if outcome.NothingRecognized {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"data": outcome})
	}
}

// detectSourceFormat prefers the file extension, then the declared mime
// type, then a cheap content sniff.
func detectSourceFormat(filename, mimeType string, content []byte) models.SourceFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return models.SourceFormatJSON
	case ".xlsx", ".xls":
		return models.SourceFormatXLSX
	case ".csv":
		return models.SourceFormatCSV
	}
	switch strings.ToLower(mimeType) {
	case "application/json":
		return models.SourceFormatJSON
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/vnd.ms-excel":
		return models.SourceFormatXLSX
	case "text/csv":
		return models.SourceFormatCSV
	}

	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return models.SourceFormatJSON
	}
	// XLSX is a zip container.
	if len(content) >= 2 && content[0] == 'P' && content[1] == 'K' {
		return models.SourceFormatXLSX
	}
	return models.SourceFormatCSV
}
