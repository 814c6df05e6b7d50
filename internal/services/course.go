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
	"github.com/courseloom/courseloom-backend/internal/requestdata"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// CourseUpdate carries the partial-edit fields; zero values are skipped,
// matching the PATCH-like semantics of the edit route.
type CourseUpdate struct {
	Title       string
	Subtitle    string
	Description string
	Category    string
	Level       string
	Price       int64
	// ThumbnailPath is a local temp file; when set, the old asset is
	// deleted (best effort) and the new one uploaded before any DB write.
	ThumbnailPath string
}

type CourseService interface {
	CreateCourse(ctx context.Context, title, category string) (*types.Course, error)
	GetCreatorCourses(ctx context.Context) ([]*types.Course, error)
	GetCourseByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	GetPublishedCourses(ctx context.Context) ([]*types.Course, error)
	SearchCourses(ctx context.Context, search repos.CourseSearch) ([]*types.Course, error)
	EditCourse(ctx context.Context, courseID uuid.UUID, update CourseUpdate) (*types.Course, error)
	TogglePublish(ctx context.Context, courseID uuid.UUID, publish bool) (*types.Course, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	media      MediaService
	cache      CourseCache
}

func NewCourseService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	media MediaService,
	cache CourseCache,
) CourseService {
	return &courseService{
		db:         db,
		log:        log.With("service", "CourseService"),
		courseRepo: courseRepo,
		media:      media,
		cache:      cache,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, title, category string) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	if title == "" || category == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("course title and category are required"))
	}
	course := &types.Course{
		ID:        uuid.New(),
		CreatorID: rd.UserID,
		Title:     title,
		Category:  category,
	}
	if _, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (cs *courseService) GetCreatorCourses(ctx context.Context) ([]*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	courses, err := cs.courseRepo.GetByCreatorIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load creator courses: %w", err)
	}
	return courses, nil
}

func (cs *courseService) GetCourseByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByIDsWithLectures(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	return courses[0], nil
}

func (cs *courseService) GetPublishedCourses(ctx context.Context) ([]*types.Course, error) {
	if cs.cache != nil {
		if courses, ok := cs.cache.GetPublished(ctx); ok {
			return courses, nil
		}
	}
	courses, err := cs.courseRepo.GetPublished(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load published courses: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("no_published_courses", fmt.Errorf("no published courses found"))
	}
	if cs.cache != nil {
		cs.cache.SetPublished(ctx, courses)
	}
	return courses, nil
}

func (cs *courseService) SearchCourses(ctx context.Context, search repos.CourseSearch) ([]*types.Course, error) {
	courses, err := cs.courseRepo.Search(ctx, nil, search)
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return courses, nil
}

func (cs *courseService) EditCourse(ctx context.Context, courseID uuid.UUID, update CourseUpdate) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	course := courses[0]

	if update.ThumbnailPath != "" {
		// Old asset goes first; a failed delete is non-fatal cleanup.
		if course.ThumbnailAssetID != "" {
			if dErr := cs.media.Delete(ctx, course.ThumbnailAssetID, MediaKindImage); dErr != nil {
				cs.log.Warn("Failed to delete old thumbnail asset", "error", dErr, "asset_id", course.ThumbnailAssetID)
			}
		}
		// A failed upload aborts the edit before any DB write.
		asset, upErr := cs.media.Upload(ctx, update.ThumbnailPath)
		if upErr != nil {
			return nil, apierr.Upstream("thumbnail_upload_failed", upErr)
		}
		course.ThumbnailURL = asset.URL
		course.ThumbnailAssetID = asset.AssetID
	}

	if update.Title != "" {
		course.Title = update.Title
	}
	if update.Subtitle != "" {
		course.Subtitle = update.Subtitle
	}
	if update.Description != "" {
		course.Description = update.Description
	}
	if update.Category != "" {
		course.Category = update.Category
	}
	if update.Level != "" {
		course.Level = update.Level
	}
	if update.Price > 0 {
		course.Price = update.Price
	}

	if err := cs.courseRepo.Save(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("save course: %w", err)
	}
	if cs.cache != nil {
		cs.cache.InvalidatePublished(ctx)
	}
	return course, nil
}

func (cs *courseService) TogglePublish(ctx context.Context, courseID uuid.UUID, publish bool) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	course := courses[0]
	course.IsPublished = publish
	if err := cs.courseRepo.Save(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("save course: %w", err)
	}
	if cs.cache != nil {
		cs.cache.InvalidatePublished(ctx)
	}
	return course, nil
}
