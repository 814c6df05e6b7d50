package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type CourseProgressRepo interface {
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	// Create deduplicates racing first inserts on the (user, course)
	// unique index; callers re-fetch after a conflict.
	Create(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error
	Save(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{db: db, log: baseLog.With("repo", "CourseProgressRepo")}
}

func (cpr *courseProgressRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = cpr.db
	}
	var results []*types.CourseProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cpr *courseProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = cpr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(progress).Error
}

func (cpr *courseProgressRepo) Save(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = cpr.db
	}
	return transaction.WithContext(ctx).Save(progress).Error
}
