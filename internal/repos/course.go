package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// CourseSearch is the literal substring filter of the catalog: published
// courses only, case-insensitive match on title/subtitle, optional strict
// category filter, optional price sort.
type CourseSearch struct {
	Query       string
	Categories  []string
	SortByPrice string // "low" | "high" | ""
}

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetByIDsWithLectures(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetByCreatorIDs(ctx context.Context, tx *gorm.DB, creatorIDs []uuid.UUID) ([]*types.Course, error)
	GetPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	Search(ctx context.Context, tx *gorm.DB, search CourseSearch) ([]*types.Course, error)
	Save(ctx context.Context, tx *gorm.DB, course *types.Course) error
	// AddEnrolledStudent inserts into the course-side enrollment set.
	// Repeats are no-ops (ON CONFLICT DO NOTHING).
	AddEnrolledStudent(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) error
	GetEnrolledStudentIDs(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (cr *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (cr *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) GetByIDsWithLectures(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) GetByCreatorIDs(ctx context.Context, tx *gorm.DB, creatorIDs []uuid.UUID) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Course
	if len(creatorIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("creator_id IN ?", creatorIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) GetPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Course
	if err := transaction.WithContext(ctx).
		Preload("Creator").
		Where("is_published = ?", true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) Search(ctx context.Context, tx *gorm.DB, search CourseSearch) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.Course{}).
		Preload("Creator").
		Where("is_published = ?", true)
	if query := strings.TrimSpace(search.Query); query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(subtitle) LIKE ?", pattern, pattern)
	}
	if len(search.Categories) > 0 {
		q = q.Where("category IN ?", search.Categories)
	}
	switch search.SortByPrice {
	case "low":
		q = q.Order("price ASC")
	case "high":
		q = q.Order("price DESC")
	}
	var results []*types.Course
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) Save(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Save(course).Error
}

func (cr *courseRepo) AddEnrolledStudent(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Exec(`INSERT INTO course_enrolled_student (course_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, courseID, userID).
		Error
}

func (cr *courseRepo) GetEnrolledStudentIDs(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Raw(`SELECT user_id FROM course_enrolled_student WHERE course_id = ?`, courseID).
		Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
