package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type LectureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lectures []*types.Lecture) ([]*types.Lecture, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, lectureIDs []uuid.UUID) ([]*types.Lecture, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lecture, error)
	CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	Save(ctx context.Context, tx *gorm.DB, lecture *types.Lecture) error
	Delete(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) error
	// MarkAllPreviewFree flags every lecture of a course as preview
	// visible. Deterministic, so webhook replays are safe.
	MarkAllPreviewFree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (lr *lectureRepo) Create(ctx context.Context, tx *gorm.DB, lectures []*types.Lecture) ([]*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if len(lectures) == 0 {
		return []*types.Lecture{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&lectures).Error; err != nil {
		return nil, err
	}
	return lectures, nil
}

func (lr *lectureRepo) GetByIDs(ctx context.Context, tx *gorm.DB, lectureIDs []uuid.UUID) ([]*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var results []*types.Lecture
	if len(lectureIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", lectureIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *lectureRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var results []*types.Lecture
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *lectureRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Lecture{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (lr *lectureRepo) Save(ctx context.Context, tx *gorm.DB, lecture *types.Lecture) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).Save(lecture).Error
}

func (lr *lectureRepo) Delete(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", lectureID).
		Delete(&types.Lecture{}).Error
}

func (lr *lectureRepo) MarkAllPreviewFree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Lecture{}).
		Where("course_id = ?", courseID).
		Update("is_preview_free", true).Error
}
