package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// LectureUpdate carries the partial-edit fields for a lecture. A new
// video reference replaces the old one; the old asset is deleted best
// effort.
type LectureUpdate struct {
	Title         string
	VideoURL      string
	VideoAssetID  string
	IsPreviewFree *bool
}

type LectureService interface {
	CreateLecture(ctx context.Context, courseID uuid.UUID, title string) (*types.Lecture, error)
	GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error)
	GetLectureByID(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error)
	EditLecture(ctx context.Context, courseID, lectureID uuid.UUID, update LectureUpdate) (*types.Lecture, error)
	RemoveLecture(ctx context.Context, lectureID uuid.UUID) error
}

type lectureService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	lectureRepo repos.LectureRepo
	media       MediaService
}

func NewLectureService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	media MediaService,
) LectureService {
	return &lectureService{
		db:          db,
		log:         log.With("service", "LectureService"),
		courseRepo:  courseRepo,
		lectureRepo: lectureRepo,
		media:       media,
	}
}

func (ls *lectureService) CreateLecture(ctx context.Context, courseID uuid.UUID, title string) (*types.Lecture, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("lecture title is required"))
	}
	courses, err := ls.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	count, err := ls.lectureRepo.CountByCourseID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("count course lectures: %w", err)
	}
	lecture := &types.Lecture{
		ID:       uuid.New(),
		CourseID: courseID,
		Title:    title,
		Position: int(count),
	}
	if _, err := ls.lectureRepo.Create(ctx, nil, []*types.Lecture{lecture}); err != nil {
		return nil, fmt.Errorf("create lecture: %w", err)
	}
	return lecture, nil
}

func (ls *lectureService) GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error) {
	courses, err := ls.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	lectures, err := ls.lectureRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course lectures: %w", err)
	}
	return lectures, nil
}

func (ls *lectureService) GetLectureByID(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error) {
	lectures, err := ls.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return nil, fmt.Errorf("load lecture: %w", err)
	}
	if len(lectures) == 0 {
		return nil, apierr.NotFound("lecture_not_found", fmt.Errorf("lecture not found"))
	}
	return lectures[0], nil
}

func (ls *lectureService) EditLecture(ctx context.Context, courseID, lectureID uuid.UUID, update LectureUpdate) (*types.Lecture, error) {
	lectures, err := ls.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return nil, fmt.Errorf("load lecture: %w", err)
	}
	if len(lectures) == 0 {
		return nil, apierr.NotFound("lecture_not_found", fmt.Errorf("lecture not found"))
	}
	lecture := lectures[0]

	// Replacing the video drops the old asset first; the delete is
	// non-fatal cleanup and never blocks the edit.
	if lecture.VideoAssetID != "" && update.VideoAssetID != "" && update.VideoAssetID != lecture.VideoAssetID {
		if dErr := ls.media.Delete(ctx, lecture.VideoAssetID, MediaKindVideo); dErr != nil {
			ls.log.Warn("Failed to delete old lecture video asset", "error", dErr, "asset_id", lecture.VideoAssetID)
		}
	}

	if update.Title != "" {
		lecture.Title = update.Title
	}
	if update.VideoURL != "" {
		lecture.VideoURL = update.VideoURL
	}
	if update.VideoAssetID != "" {
		lecture.VideoAssetID = update.VideoAssetID
	}
	if update.IsPreviewFree != nil {
		lecture.IsPreviewFree = *update.IsPreviewFree
	}

	// Re-attach to the course if the row lost its owner.
	if lecture.CourseID == uuid.Nil && courseID != uuid.Nil {
		lecture.CourseID = courseID
	}

	if err := ls.lectureRepo.Save(ctx, nil, lecture); err != nil {
		return nil, fmt.Errorf("save lecture: %w", err)
	}
	return lecture, nil
}

func (ls *lectureService) RemoveLecture(ctx context.Context, lectureID uuid.UUID) error {
	lectures, err := ls.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return fmt.Errorf("load lecture: %w", err)
	}
	if len(lectures) == 0 {
		return apierr.NotFound("lecture_not_found", fmt.Errorf("lecture not found"))
	}
	lecture := lectures[0]
	if err := ls.lectureRepo.Delete(ctx, nil, lecture.ID); err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	// Asset cleanup after the row is gone; failures are logged and
	// swallowed.
	if lecture.VideoAssetID != "" {
		if dErr := ls.media.Delete(ctx, lecture.VideoAssetID, MediaKindVideo); dErr != nil {
			ls.log.Warn("Failed to delete lecture video asset", "error", dErr, "asset_id", lecture.VideoAssetID)
		}
	}
	return nil
}
