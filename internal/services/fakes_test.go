package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/requestdata"
	"github.com/courseloom/courseloom-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

func ctxWithUser(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: userID,
		Role:   types.RoleStudent,
	})
}

type enrollKey struct {
	a uuid.UUID
	b uuid.UUID
}

type fakeCourseRepo struct {
	courses  map[uuid.UUID]*types.Course
	enrolled map[enrollKey]bool
	saves    int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses:  map[uuid.UUID]*types.Course{},
		enrolled: map[enrollKey]bool{},
	}
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	for _, c := range courses {
		f.courses[c.ID] = c
	}
	return courses, nil
}

func (f *fakeCourseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	for _, id := range courseIDs {
		if c, ok := f.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) GetByIDsWithLectures(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	return f.GetByIDs(ctx, tx, courseIDs)
}

func (f *fakeCourseRepo) GetByCreatorIDs(ctx context.Context, tx *gorm.DB, creatorIDs []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range f.courses {
		for _, id := range creatorIDs {
			if c.CreatorID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) GetPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range f.courses {
		if c.IsPublished {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) Search(ctx context.Context, tx *gorm.DB, search repos.CourseSearch) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range f.courses {
		if !c.IsPublished {
			continue
		}
		if q := strings.ToLower(strings.TrimSpace(search.Query)); q != "" {
			if !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Subtitle), q) {
				continue
			}
		}
		if len(search.Categories) > 0 {
			match := false
			for _, cat := range search.Categories {
				if c.Category == cat {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, c)
	}
	switch search.SortByPrice {
	case "low":
		sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "high":
		sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out, nil
}

func (f *fakeCourseRepo) Save(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	f.courses[course.ID] = course
	f.saves++
	return nil
}

func (f *fakeCourseRepo) AddEnrolledStudent(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) error {
	f.enrolled[enrollKey{courseID, userID}] = true
	return nil
}

func (f *fakeCourseRepo) GetEnrolledStudentIDs(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for k := range f.enrolled {
		if k.a == courseID {
			ids = append(ids, k.b)
		}
	}
	return ids, nil
}

type fakeUserRepo struct {
	users    map[uuid.UUID]*types.User
	enrolled map[enrollKey]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    map[uuid.UUID]*types.User{},
		enrolled: map[enrollKey]bool{},
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	var out []*types.User
	for _, u := range f.users {
		for _, email := range userEmails {
			if u.Email == email {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	for _, u := range f.users {
		if u.Email == userEmail {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) AddEnrolledCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
	f.enrolled[enrollKey{userID, courseID}] = true
	return nil
}

func (f *fakeUserRepo) GetEnrolledCourseIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for k := range f.enrolled {
		if k.a == userID {
			ids = append(ids, k.b)
		}
	}
	return ids, nil
}

type fakeLectureRepo struct {
	lectures map[uuid.UUID]*types.Lecture
}

func newFakeLectureRepo() *fakeLectureRepo {
	return &fakeLectureRepo{lectures: map[uuid.UUID]*types.Lecture{}}
}

func (f *fakeLectureRepo) Create(ctx context.Context, tx *gorm.DB, lectures []*types.Lecture) ([]*types.Lecture, error) {
	for _, l := range lectures {
		f.lectures[l.ID] = l
	}
	return lectures, nil
}

func (f *fakeLectureRepo) GetByIDs(ctx context.Context, tx *gorm.DB, lectureIDs []uuid.UUID) ([]*types.Lecture, error) {
	var out []*types.Lecture
	for _, id := range lectureIDs {
		if l, ok := f.lectures[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLectureRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lecture, error) {
	var out []*types.Lecture
	for _, l := range f.lectures {
		for _, id := range courseIDs {
			if l.CourseID == id {
				out = append(out, l)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeLectureRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	for _, l := range f.lectures {
		if l.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLectureRepo) Save(ctx context.Context, tx *gorm.DB, lecture *types.Lecture) error {
	f.lectures[lecture.ID] = lecture
	return nil
}

func (f *fakeLectureRepo) Delete(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) error {
	delete(f.lectures, lectureID)
	return nil
}

func (f *fakeLectureRepo) MarkAllPreviewFree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	for _, l := range f.lectures {
		if l.CourseID == courseID {
			l.IsPreviewFree = true
		}
	}
	return nil
}

type fakePurchaseRepo struct {
	purchases map[uuid.UUID]*types.Purchase
	createErr error
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: map[uuid.UUID]*types.Purchase{}}
}

func (f *fakePurchaseRepo) Create(ctx context.Context, tx *gorm.DB, purchases []*types.Purchase) ([]*types.Purchase, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, p := range purchases {
		f.purchases[p.ID] = p
	}
	return purchases, nil
}

func (f *fakePurchaseRepo) GetBySessionIDs(ctx context.Context, tx *gorm.DB, sessionIDs []string) ([]*types.Purchase, error) {
	var out []*types.Purchase
	for _, p := range f.purchases {
		for _, sid := range sessionIDs {
			if p.PaymentSessionID == sid {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.Purchase, error) {
	var out []*types.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID && p.CourseID == courseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) GetCompleted(ctx context.Context, tx *gorm.DB) ([]*types.Purchase, error) {
	var out []*types.Purchase
	for _, p := range f.purchases {
		if p.Status == types.PurchaseStatusComplete {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) Save(ctx context.Context, tx *gorm.DB, purchase *types.Purchase) error {
	f.purchases[purchase.ID] = purchase
	return nil
}

type fakeProgressRepo struct {
	rows map[enrollKey]*types.CourseProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: map[enrollKey]*types.CourseProgress{}}
}

func (f *fakeProgressRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	if p, ok := f.rows[enrollKey{userID, courseID}]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *fakeProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error {
	key := enrollKey{progress.UserID, progress.CourseID}
	if _, ok := f.rows[key]; ok {
		// Matches the real ON CONFLICT DO NOTHING behavior.
		return nil
	}
	f.rows[key] = progress
	return nil
}

func (f *fakeProgressRepo) Save(ctx context.Context, tx *gorm.DB, progress *types.CourseProgress) error {
	f.rows[enrollKey{progress.UserID, progress.CourseID}] = progress
	return nil
}

// fakeGateway scripts the payment processor boundary: a canned checkout
// session and a canned verification result.
type fakeGateway struct {
	session      *CheckoutSession
	createErr    error
	createCalls  []CheckoutSessionRequest
	event        *GatewayEvent
	verifyErr    error
	verifyCalled bool
	gotSignature string
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) VerifyEvent(payload []byte, signatureHeader string) (*GatewayEvent, error) {
	f.verifyCalled = true
	f.gotSignature = signatureHeader
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

type fakeMedia struct {
	uploads   []string
	deletes   []string
	uploadErr error
	asset     *MediaAsset
}

func (f *fakeMedia) Upload(ctx context.Context, localFilePath string) (*MediaAsset, error) {
	f.uploads = append(f.uploads, localFilePath)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.asset != nil {
		return f.asset, nil
	}
	return &MediaAsset{URL: "https://cdn.example/" + localFilePath, AssetID: "asset-" + localFilePath}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, assetID, kind string) error {
	f.deletes = append(f.deletes, assetID)
	return nil
}

var errBoom = fmt.Errorf("boom")
