package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/audit_backend/config"
	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("audit-backend")

// IngestFile is one uploaded file, fully read before parsing begins.
type IngestFile struct {
	Name    string
	Format  models.SourceFormat
	Content []byte
}

// FileOutcome reports what one file contributed to the batch.
type FileOutcome struct {
	FileName         string              `json:"file_name"`
	Kinds            []models.RecordKind `json:"kinds,omitempty"`
	RecordCount      int                 `json:"record_count"`
	CoercionFailures int                 `json:"coercion_failures,omitempty"`
	Rejected         bool                `json:"rejected,omitempty"`
	Reason           string              `json:"reason,omitempty"`
}

// IngestOutcome summarizes a whole batch. A batch where no file yields a
// recognized dataset is a no-op, reported here rather than as an error.
type IngestOutcome struct {
	Files             []FileOutcome `json:"files"`
	NothingRecognized bool          `json:"nothing_recognized"`
}

// IngestBatch normalizes the files in order and applies each detected
// dataset to the store before the next file is parsed, so a batch with
// duplicate record kinds has deterministic last-writer-wins semantics.
// A best-effort redis lock guards against concurrent batches from other
// instances; when redis is down the batch proceeds, serialized in-process
// by the store itself.
func IngestBatch(ctx context.Context, store *models.AuditStore, files []IngestFile) *IngestOutcome {
	ctx, span := tracer.Start(ctx, "ingest.batch",
		trace.WithAttributes(attribute.Int("ingest.file_count", len(files))))
	defer span.End()

	logger := config.GetLogger()
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	strict := config.StrictCoercion()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:ingest", 30*time.Second, nil)
		if err != nil {
			level := logger.WithFields(logrus.Fields{
				"module":         "workflow",
				"funcName":       "IngestBatch",
				"correlation_id": correlationId,
			})
			if errors.Is(err, redislock.ErrNotObtained) {
				level.Warn("could not obtain ingest lock; proceeding without redis lock")
			} else {
				level.Warn("error obtaining ingest lock; proceeding without redis lock: " + err.Error())
			}
		} else {
			defer func() {
				if releaseErr := lock.Release(ctx); releaseErr != nil {
					logger.WithFields(logrus.Fields{
						"module":         "workflow",
						"funcName":       "IngestBatch",
						"correlation_id": correlationId,
					}).Warn("failed to release ingest lock: " + releaseErr.Error())
				}
			}()
		}
	}

	outcome := &IngestOutcome{Files: make([]FileOutcome, 0, len(files))}
	recognized := false
	for _, file := range files {
		result := FileOutcome{FileName: file.Name}

		ds, err := models.Normalize(file.Content, file.Format)
		if err != nil {
			result.Rejected = true
			result.Reason = err.Error()
			outcome.Files = append(outcome.Files, result)
			logger.WithFields(logrus.Fields{
				"module":         "workflow",
				"funcName":       "IngestBatch",
				"file_name":      file.Name,
				"correlation_id": correlationId,
			}).Warn("file rejected: " + err.Error())
			continue
		}

		// The previous file's replace has completed by the time we get
		// here; effects on the store never interleave within a batch.
		if err := store.ApplyDataset(ds); err != nil {
			result.Rejected = true
			result.Reason = err.Error()
			outcome.Files = append(outcome.Files, result)
			config.LogError(logger, "workflow", "IngestBatch", "ApplyDataset", file.Name, err)
			continue
		}

		recognized = true
		result.Kinds = ds.Kinds
		result.RecordCount = ds.RecordCount()
		if strict {
			result.CoercionFailures = ds.CoercionFailures
		}
		outcome.Files = append(outcome.Files, result)

		logger.WithFields(logrus.Fields{
			"module":            "workflow",
			"funcName":          "IngestBatch",
			"file_name":         file.Name,
			"kinds":             ds.Kinds,
			"record_count":      result.RecordCount,
			"coercion_failures": ds.CoercionFailures,
			"correlation_id":    correlationId,
		}).Info("file ingested")
	}

	outcome.NothingRecognized = !recognized
	return outcome
}
