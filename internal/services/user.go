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

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	courseRepo repos.CourseRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, courseRepo repos.CourseRepo) UserService {
	return &userService{
		db:         db,
		log:        log.With("service", "UserService"),
		userRepo:   userRepo,
		courseRepo: courseRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	user := users[0]
	enrolledIDs, err := us.userRepo.GetEnrolledCourseIDs(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load enrolled courses: %w", err)
	}
	if len(enrolledIDs) > 0 {
		courses, cErr := us.courseRepo.GetByIDs(ctx, nil, enrolledIDs)
		if cErr != nil {
			return nil, fmt.Errorf("load enrolled courses: %w", cErr)
		}
		user.EnrolledCourses = courses
	}
	return user, nil
}
