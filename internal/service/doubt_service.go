package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/pkg/logger"
	"jee-solver/pkg/validator"
)

const downloadURLExpiry = time.Hour

var ErrSolverUnavailable = errors.New("solver unavailable")

type ObjectStorage interface {
	UploadFile(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
	DeleteFile(ctx context.Context, bucketName, objectName string) error
}

type ImageSolver interface {
	SolveImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// DoubtService stores uploaded problems and routes them to the solver.
// Images are solved inline; PDFs are queued for assessment.
type DoubtService struct {
	storage   ObjectStorage
	solver    ImageSolver
	publisher RabbitMQPublisher
	bucket    string
	log       *logger.Logger
	now       func() time.Time
}

func NewDoubtService(storage ObjectStorage, solver ImageSolver, publisher RabbitMQPublisher, bucket string, log *logger.Logger) *DoubtService {
	if log == nil {
		log = logger.Nop()
	}
	return &DoubtService{
		storage:   storage,
		solver:    solver,
		publisher: publisher,
		bucket:    bucket,
		log:       log.With("service", "DoubtService"),
		now:       time.Now,
	}
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *DoubtService) Submit(ctx context.Context, userID string, up Upload) (*models.DoubtResult, error) {
	kind, ext, err := validator.ValidateUpload(up.Filename, up.ContentType, up.Size)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, validator.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > validator.MaxUploadSize {
		return nil, validator.ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, validator.ErrEmptyUpload
	}

	id := uuid.New().String()
	objectName := fmt.Sprintf("%s/%s%s", userID, id, ext)
	if err := s.storage.UploadFile(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), up.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	result := &models.DoubtResult{
		ID:         id,
		Kind:       string(kind),
		ObjectName: objectName,
	}

	switch kind {
	case validator.UploadImage:
		solution, err := s.solver.SolveImage(ctx, up.Filename, up.ContentType, bytes.NewReader(data))
		if err != nil {
			s.log.Error("image solve failed", "user_id", userID, "doubt_id", id, "error", err)
			s.discard(ctx, objectName)
			return nil, fmt.Errorf("%w: %v", ErrSolverUnavailable, err)
		}
		result.Solution = solution
		result.Status = constants.DoubtStatusSolved
	case validator.UploadPDF:
		if err := s.publishAssessment(ctx, userID, id, objectName, up.Filename); err != nil {
			s.discard(ctx, objectName)
			return nil, err
		}
		result.Status = constants.DoubtStatusQueued
	}

	url, err := s.storage.PresignedURL(ctx, s.bucket, objectName, downloadURLExpiry)
	if err != nil {
		s.log.Warn("failed to presign download url", "object", objectName, "error", err)
	} else {
		result.DownloadURL = url
	}
	return result, nil
}

// discard removes an upload whose doubt could not be handled.
func (s *DoubtService) discard(ctx context.Context, objectName string) {
	if err := s.storage.DeleteFile(ctx, s.bucket, objectName); err != nil {
		s.log.Warn("failed to remove orphaned upload", "object", objectName, "error", err)
	}
}

func (s *DoubtService) publishAssessment(ctx context.Context, userID, doubtID, objectName, filename string) error {
	body, err := json.Marshal(PDFAssessmentEvent{
		DoubtID:     doubtID,
		UserID:      userID,
		Bucket:      s.bucket,
		ObjectName:  objectName,
		Filename:    filename,
		SubmittedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal assessment event: %w", err)
	}
	if err := s.publisher.Publish(ctx, constants.QueuePDFAssessments, body); err != nil {
		s.log.Error("failed to queue pdf assessment", "doubt_id", doubtID, "error", err)
		return fmt.Errorf("failed to queue assessment: %w", err)
	}
	return nil
}
