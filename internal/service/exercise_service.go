package service

import (
	"context"
	"errors"
	"fmt"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"
	"groupfit/session-engine/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrValidationFailed = errors.New("exercise validation failed")
	ErrNoDemoVideo      = errors.New("exercise has no demonstration video")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
)

// DemoUploadResponse carries a presigned PUT URL and the object key the
// client must confirm after the upload completes.
type DemoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ExerciseService manages the exercise library and its demonstration
// videos. The library is reference data for the session engine: the
// substitution resolver reads it, coaches curate it.
type ExerciseService interface {
	CreateExercise(ctx context.Context, name, movementPattern string, requiredEquipment []string, substitutions []primitive.ObjectID) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetAllExercises(ctx context.Context) ([]domain.Exercise, error)

	// RequestDemoUploadURL returns a presigned URL for uploading a
	// demonstration video for the exercise.
	RequestDemoUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*DemoUploadResponse, error)
	// ConfirmDemoUpload records the uploaded object key on the exercise.
	ConfirmDemoUpload(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	// GetDemoDownloadURL returns a presigned GET URL for the exercise's demo.
	GetDemoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	media        storage.MediaStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, media storage.MediaStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		media:        media,
	}
}

// CreateExercise adds an exercise to the library.
func (s *exerciseService) CreateExercise(ctx context.Context, name, movementPattern string, requiredEquipment []string, substitutions []primitive.ObjectID) (*domain.Exercise, error) {
	if name == "" || movementPattern == "" {
		return nil, ErrValidationFailed
	}
	if requiredEquipment == nil {
		requiredEquipment = []string{}
	}

	exercise := &domain.Exercise{
		Name:              name,
		MovementPattern:   movementPattern,
		RequiredEquipment: requiredEquipment,
		Substitutions:     substitutions,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// GetAllExercises retrieves the whole library.
func (s *exerciseService) GetAllExercises(ctx context.Context) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetAll(ctx)
}

// RequestDemoUploadURL generates a presigned PUT URL for a demo video.
func (s *exerciseService) RequestDemoUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*DemoUploadResponse, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	// Unique key per upload so re-uploads never clobber a demo that is
	// still being served.
	objectKey := fmt.Sprintf("demos/%s/%s", exercise.ID.Hex(), uuid.NewString())

	uploadURL, err := s.media.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &DemoUploadResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}

// ConfirmDemoUpload stores the object key once the client finished the
// direct upload. The previous demo object, if any, is deleted.
func (s *exerciseService) ConfirmDemoUpload(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	previous := exercise.DemoObjectKey
	if err := s.exerciseRepo.SetDemoObjectKey(ctx, exerciseID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	exercise.DemoObjectKey = objectKey

	if previous != "" && previous != objectKey {
		// Best effort: an orphaned object is not worth failing the confirm.
		_ = s.media.DeleteObject(ctx, previous)
	}

	return exercise, nil
}

// GetDemoDownloadURL generates a presigned GET URL for the stored demo.
func (s *exerciseService) GetDemoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.DemoObjectKey == "" {
		return "", ErrNoDemoVideo
	}
	return s.media.GeneratePresignedDownloadURL(ctx, exercise.DemoObjectKey, storage.DefaultPresignedURLExpiry)
}
