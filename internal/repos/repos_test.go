package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

func setupDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Course{},
		&types.Lecture{},
		&types.CourseProgress{},
		&types.Purchase{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return db, log
}

func seedUser(t *testing.T, db *gorm.DB, log *logger.Logger) *types.User {
	t.Helper()
	repo := NewUserRepo(db, log)
	user := &types.User{
		ID:       uuid.New(),
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
		Name:     "Test User",
		Role:     types.RoleStudent,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, log *logger.Logger, creatorID uuid.UUID, title string, price int64, published bool) *types.Course {
	t.Helper()
	repo := NewCourseRepo(db, log)
	course := &types.Course{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Category:    "programming",
		Price:       price,
		IsPublished: published,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.Course{course}); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func TestCourseProgressRepo_CompositeUniqueDedup(t *testing.T) {
	db, log := setupDB(t)
	repo := NewCourseProgressRepo(db, log)
	ctx := context.Background()

	user := seedUser(t, db, log)
	course := seedCourse(t, db, log, user.ID, "Go from Zero", 500, true)

	first := &types.CourseProgress{ID: uuid.New(), UserID: user.ID, CourseID: course.ID}
	if err := first.SetViews([]types.LectureView{}); err != nil {
		t.Fatalf("encode views: %v", err)
	}
	if err := repo.Create(ctx, nil, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := &types.CourseProgress{ID: uuid.New(), UserID: user.ID, CourseID: course.ID}
	if err := second.SetViews([]types.LectureView{}); err != nil {
		t.Fatalf("encode views: %v", err)
	}
	if err := repo.Create(ctx, nil, second); err != nil {
		t.Fatalf("conflicting create must be a no-op, got %v", err)
	}

	got, err := repo.GetByUserAndCourse(ctx, nil, user.ID, course.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Fatalf("expected first row to win, got %+v", got)
	}

	var count int64
	if err := db.Model(&types.CourseProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row per (user, course), got %d", count)
	}
}

func TestCourseProgressRepo_GetMissingReturnsNil(t *testing.T) {
	db, log := setupDB(t)
	repo := NewCourseProgressRepo(db, log)

	got, err := repo.GetByUserAndCourse(context.Background(), nil, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
}

func TestPurchaseRepo_SessionRoundTrip(t *testing.T) {
	db, log := setupDB(t)
	repo := NewPurchaseRepo(db, log)
	ctx := context.Background()

	user := seedUser(t, db, log)
	course := seedCourse(t, db, log, user.ID, "Go from Zero", 500, true)

	purchase := &types.Purchase{
		ID:               uuid.New(),
		CourseID:         course.ID,
		UserID:           user.ID,
		Amount:           500,
		Status:           types.PurchaseStatusPending,
		PaymentSessionID: "cs_round_trip",
	}
	if _, err := repo.Create(ctx, nil, []*types.Purchase{purchase}); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.GetBySessionIDs(ctx, nil, []string{"cs_round_trip"})
	if err != nil {
		t.Fatalf("get by session: %v", err)
	}
	if len(found) != 1 || found[0].ID != purchase.ID {
		t.Fatalf("session lookup failed: %+v", found)
	}

	completed, err := repo.GetCompleted(ctx, nil)
	if err != nil {
		t.Fatalf("get completed: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("pending purchase must not show as completed")
	}

	purchase.Status = types.PurchaseStatusComplete
	if err := repo.Save(ctx, nil, purchase); err != nil {
		t.Fatalf("save: %v", err)
	}
	completed, err = repo.GetCompleted(ctx, nil)
	if err != nil {
		t.Fatalf("get completed: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected one completed purchase, got %d", len(completed))
	}
	if completed[0].Course == nil || completed[0].Course.ID != course.ID {
		t.Fatalf("completed purchase must preload its course")
	}
}

func TestEnrollment_SetSemantics(t *testing.T) {
	db, log := setupDB(t)
	userRepo := NewUserRepo(db, log)
	courseRepo := NewCourseRepo(db, log)
	ctx := context.Background()

	user := seedUser(t, db, log)
	course := seedCourse(t, db, log, user.ID, "Go from Zero", 500, true)

	for i := 0; i < 3; i++ {
		if err := userRepo.AddEnrolledCourse(ctx, nil, user.ID, course.ID); err != nil {
			t.Fatalf("user-side insert %d: %v", i+1, err)
		}
		if err := courseRepo.AddEnrolledStudent(ctx, nil, course.ID, user.ID); err != nil {
			t.Fatalf("course-side insert %d: %v", i+1, err)
		}
	}

	courseIDs, err := userRepo.GetEnrolledCourseIDs(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("get enrolled courses: %v", err)
	}
	if len(courseIDs) != 1 || courseIDs[0] != course.ID {
		t.Fatalf("expected single enrolled course, got %v", courseIDs)
	}
	studentIDs, err := courseRepo.GetEnrolledStudentIDs(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("get enrolled students: %v", err)
	}
	if len(studentIDs) != 1 || studentIDs[0] != user.ID {
		t.Fatalf("expected single enrolled student, got %v", studentIDs)
	}
}

func TestCourseRepo_Search(t *testing.T) {
	db, log := setupDB(t)
	repo := NewCourseRepo(db, log)
	ctx := context.Background()

	creator := seedUser(t, db, log)
	cheap := seedCourse(t, db, log, creator.ID, "Go Basics", 100, true)
	dear := seedCourse(t, db, log, creator.ID, "Go Advanced", 900, true)
	seedCourse(t, db, log, creator.ID, "Go Secrets", 10, false)

	art := seedCourse(t, db, log, creator.ID, "Watercolors", 50, true)
	art.Category = "art"
	if err := repo.Save(ctx, nil, art); err != nil {
		t.Fatalf("save art course: %v", err)
	}

	got, err := repo.Search(ctx, nil, CourseSearch{
		Query:       "GO",
		Categories:  []string{"programming"},
		SortByPrice: "low",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 published programming matches, got %d", len(got))
	}
	if got[0].ID != cheap.ID || got[1].ID != dear.ID {
		t.Fatalf("expected ascending price order, got %q then %q", got[0].Title, got[1].Title)
	}

	got, err = repo.Search(ctx, nil, CourseSearch{SortByPrice: "high"})
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 published courses, got %d", len(got))
	}
	if got[0].ID != dear.ID {
		t.Fatalf("expected highest price first, got %q", got[0].Title)
	}
}

func TestLectureRepo_OrderingAndUnlock(t *testing.T) {
	db, log := setupDB(t)
	repo := NewLectureRepo(db, log)
	ctx := context.Background()

	user := seedUser(t, db, log)
	course := seedCourse(t, db, log, user.ID, "Go from Zero", 500, true)

	// Insert out of order; reads must come back by position.
	var lectures []*types.Lecture
	for _, pos := range []int{2, 0, 1} {
		lectures = append(lectures, &types.Lecture{
			ID:       uuid.New(),
			CourseID: course.ID,
			Title:    "lecture",
			Position: pos,
		})
	}
	if _, err := repo.Create(ctx, nil, lectures); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByCourseIDs(ctx, nil, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("get by course: %v", err)
	}
	for i, l := range got {
		if l.Position != i {
			t.Fatalf("expected position %d at index %d, got %d", i, i, l.Position)
		}
	}

	count, err := repo.CountByCourseID(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 lectures, got %d", count)
	}

	if err := repo.MarkAllPreviewFree(ctx, nil, course.ID); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	got, err = repo.GetByCourseIDs(ctx, nil, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, l := range got {
		if !l.IsPreviewFree {
			t.Fatalf("expected every lecture preview-free after unlock")
		}
	}
}
