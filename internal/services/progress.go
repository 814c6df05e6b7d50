package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/requestdata"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// ProgressDetail is the progress view for one (user, course) pair. A
// course the user has not engaged with yet yields an empty, well-formed
// detail rather than an error.
type ProgressDetail struct {
	CourseDetails *types.Course       `json:"course_details"`
	Progress      []types.LectureView `json:"progress"`
	Completed     bool                `json:"completed"`
}

type ProgressService interface {
	GetCourseProgress(ctx context.Context, courseID uuid.UUID) (*ProgressDetail, error)
	RecordLectureViewed(ctx context.Context, courseID, lectureID uuid.UUID) (*types.CourseProgress, error)
	MarkCompleted(ctx context.Context, courseID uuid.UUID) error
	MarkIncompleted(ctx context.Context, courseID uuid.UUID) error
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	courseRepo   repos.CourseRepo
	lectureRepo  repos.LectureRepo
	progressRepo repos.CourseProgressRepo
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	progressRepo repos.CourseProgressRepo,
) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		courseRepo:   courseRepo,
		lectureRepo:  lectureRepo,
		progressRepo: progressRepo,
	}
}

func (ps *progressService) GetCourseProgress(ctx context.Context, courseID uuid.UUID) (*ProgressDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	courses, err := ps.courseRepo.GetByIDsWithLectures(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	course := courses[0]

	progress, err := ps.progressRepo.GetByUserAndCourse(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course progress: %w", err)
	}
	if progress == nil {
		return &ProgressDetail{
			CourseDetails: course,
			Progress:      []types.LectureView{},
			Completed:     false,
		}, nil
	}
	views, err := progress.Views()
	if err != nil {
		return nil, fmt.Errorf("decode lecture progress: %w", err)
	}
	return &ProgressDetail{
		CourseDetails: course,
		Progress:      views,
		Completed:     progress.Completed,
	}, nil
}

func (ps *progressService) RecordLectureViewed(ctx context.Context, courseID, lectureID uuid.UUID) (*types.CourseProgress, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	if courseID == uuid.Nil || lectureID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_params", fmt.Errorf("course id and lecture id are required"))
	}

	progress, err := ps.fetchOrCreate(ctx, rd.UserID, courseID)
	if err != nil {
		return nil, err
	}

	views, err := progress.Views()
	if err != nil {
		return nil, fmt.Errorf("decode lecture progress: %w", err)
	}
	found := false
	for i := range views {
		if views[i].LectureID == lectureID {
			// Repeated views are not an error.
			views[i].Viewed = true
			found = true
			break
		}
	}
	if !found {
		views = append(views, types.LectureView{LectureID: lectureID, Viewed: true})
	}
	if err := progress.SetViews(views); err != nil {
		return nil, fmt.Errorf("encode lecture progress: %w", err)
	}

	viewedCount := 0
	for _, v := range views {
		if v.Viewed {
			viewedCount++
		}
	}
	total, err := ps.lectureRepo.CountByCourseID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("count course lectures: %w", err)
	}
	if total > 0 && int64(viewedCount) == total {
		progress.Completed = true
	}

	if err := ps.progressRepo.Save(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("save course progress: %w", err)
	}
	return progress, nil
}

func (ps *progressService) MarkCompleted(ctx context.Context, courseID uuid.UUID) error {
	return ps.bulkSetViewed(ctx, courseID, true)
}

func (ps *progressService) MarkIncompleted(ctx context.Context, courseID uuid.UUID) error {
	return ps.bulkSetViewed(ctx, courseID, false)
}

// bulkSetViewed is the explicit override path: every tracked lecture and
// the aggregate flag move together, independent of the counting rule.
func (ps *progressService) bulkSetViewed(ctx context.Context, courseID uuid.UUID, viewed bool) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	progress, err := ps.progressRepo.GetByUserAndCourse(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return fmt.Errorf("load course progress: %w", err)
	}
	if progress == nil {
		return apierr.NotFound("progress_not_found", fmt.Errorf("course progress not found"))
	}
	views, err := progress.Views()
	if err != nil {
		return fmt.Errorf("decode lecture progress: %w", err)
	}
	for i := range views {
		views[i].Viewed = viewed
	}
	if err := progress.SetViews(views); err != nil {
		return fmt.Errorf("encode lecture progress: %w", err)
	}
	progress.Completed = viewed
	if err := ps.progressRepo.Save(ctx, nil, progress); err != nil {
		return fmt.Errorf("save course progress: %w", err)
	}
	return nil
}

func (ps *progressService) fetchOrCreate(ctx context.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	progress, err := ps.progressRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course progress: %w", err)
	}
	if progress != nil {
		return progress, nil
	}
	fresh := &types.CourseProgress{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
	}
	if err := fresh.SetViews([]types.LectureView{}); err != nil {
		return nil, fmt.Errorf("encode lecture progress: %w", err)
	}
	if err := ps.progressRepo.Create(ctx, nil, fresh); err != nil {
		return nil, fmt.Errorf("create course progress: %w", err)
	}
	// A concurrent first insert may have won on the (user, course)
	// unique index; read back whichever row landed.
	progress, err = ps.progressRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("reload course progress: %w", err)
	}
	if progress == nil {
		return nil, fmt.Errorf("course progress missing after create")
	}
	return progress, nil
}
