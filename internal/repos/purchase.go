package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type PurchaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, purchases []*types.Purchase) ([]*types.Purchase, error)
	GetBySessionIDs(ctx context.Context, tx *gorm.DB, sessionIDs []string) ([]*types.Purchase, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.Purchase, error)
	GetCompleted(ctx context.Context, tx *gorm.DB) ([]*types.Purchase, error)
	Save(ctx context.Context, tx *gorm.DB, purchase *types.Purchase) error
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return &purchaseRepo{db: db, log: baseLog.With("repo", "PurchaseRepo")}
}

func (pr *purchaseRepo) Create(ctx context.Context, tx *gorm.DB, purchases []*types.Purchase) ([]*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(purchases) == 0 {
		return []*types.Purchase{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (pr *purchaseRepo) GetBySessionIDs(ctx context.Context, tx *gorm.DB, sessionIDs []string) ([]*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Purchase
	if len(sessionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("payment_session_id IN ?", sessionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *purchaseRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Purchase
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *purchaseRepo) GetCompleted(ctx context.Context, tx *gorm.DB) ([]*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Purchase
	if err := transaction.WithContext(ctx).
		Preload("Course").
		Where("status = ?", types.PurchaseStatusComplete).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *purchaseRepo) Save(ctx context.Context, tx *gorm.DB, purchase *types.Purchase) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(purchase).Error
}
