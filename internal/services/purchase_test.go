package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type purchaseFixture struct {
	svc          PurchaseService
	userRepo     *fakeUserRepo
	courseRepo   *fakeCourseRepo
	lectureRepo  *fakeLectureRepo
	purchaseRepo *fakePurchaseRepo
	gateway      *fakeGateway
	cfg          *config.Config
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	f := &purchaseFixture{
		userRepo:     newFakeUserRepo(),
		courseRepo:   newFakeCourseRepo(),
		lectureRepo:  newFakeLectureRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		gateway:      &fakeGateway{},
		cfg: &config.Config{
			FrontendURL:      "https://app.example.com",
			CheckoutCurrency: "inr",
		},
	}
	f.svc = NewPurchaseService(nil, newTestLogger(t), f.cfg, f.gateway,
		f.userRepo, f.courseRepo, f.lectureRepo, f.purchaseRepo)
	return f
}

func (f *purchaseFixture) addCourse(t *testing.T, title string, price int64) *types.Course {
	t.Helper()
	course := &types.Course{
		ID:           uuid.New(),
		CreatorID:    uuid.New(),
		Title:        title,
		Price:        price,
		ThumbnailURL: "https://cdn.example/thumb.png",
	}
	if _, err := f.courseRepo.Create(context.Background(), nil, []*types.Course{course}); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func (f *purchaseFixture) addLectures(t *testing.T, courseID uuid.UUID, n int) []*types.Lecture {
	t.Helper()
	var lectures []*types.Lecture
	for i := 0; i < n; i++ {
		lectures = append(lectures, &types.Lecture{
			ID:       uuid.New(),
			CourseID: courseID,
			Title:    "lecture",
			Position: i,
		})
	}
	if _, err := f.lectureRepo.Create(context.Background(), nil, lectures); err != nil {
		t.Fatalf("seed lectures: %v", err)
	}
	return lectures
}

func TestCreateCheckoutSession_CourseNotFound(t *testing.T) {
	f := newPurchaseFixture(t)
	_, err := f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), uuid.New())
	if err == nil {
		t.Fatalf("expected error for missing course")
	}
	status, code := apierr.StatusOf(err)
	if status != http.StatusNotFound || code != "course_not_found" {
		t.Fatalf("expected 404 course_not_found, got %d %q", status, code)
	}
	if len(f.gateway.createCalls) != 0 {
		t.Fatalf("gateway should not be called for missing course")
	}
}

func TestCreateCheckoutSession_PriceNotSet(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 0)
	_, err := f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), course.ID)
	status, code := apierr.StatusOf(err)
	if status != http.StatusBadRequest || code != "price_not_set" {
		t.Fatalf("expected 400 price_not_set, got %d %q", status, code)
	}
}

func TestCreateCheckoutSession_InvalidCourseDetails(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "   ", 500)
	_, err := f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), course.ID)
	status, code := apierr.StatusOf(err)
	if status != http.StatusBadRequest || code != "invalid_course_details" {
		t.Fatalf("expected 400 invalid_course_details, got %d %q", status, code)
	}

	noThumb := f.addCourse(t, "Go from Zero", 500)
	noThumb.ThumbnailURL = ""
	_, err = f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), noThumb.ID)
	status, code = apierr.StatusOf(err)
	if status != http.StatusBadRequest || code != "invalid_course_details" {
		t.Fatalf("expected 400 for missing thumbnail, got %d %q", status, code)
	}
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	userID := uuid.New()
	f.gateway.session = &CheckoutSession{ID: "cs_test_123", URL: "https://pay.example/cs_test_123"}

	url, err := f.svc.CreateCheckoutSession(ctxWithUser(userID), course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pay.example/cs_test_123" {
		t.Fatalf("unexpected redirect url %q", url)
	}

	if len(f.gateway.createCalls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(f.gateway.createCalls))
	}
	req := f.gateway.createCalls[0]
	if req.AmountMinorUnits != 50000 {
		t.Fatalf("expected 50000 minor units for price 500, got %d", req.AmountMinorUnits)
	}
	if req.Currency != "inr" {
		t.Fatalf("expected currency inr, got %q", req.Currency)
	}
	if req.SuccessURL != "https://app.example.com/course-progress/"+course.ID.String() {
		t.Fatalf("unexpected success url %q", req.SuccessURL)
	}
	if req.CancelURL != "https://app.example.com/course-details/"+course.ID.String() {
		t.Fatalf("unexpected cancel url %q", req.CancelURL)
	}
	if req.Metadata["courseId"] != course.ID.String() || req.Metadata["userId"] != userID.String() {
		t.Fatalf("metadata missing ids: %v", req.Metadata)
	}

	rows, _ := f.purchaseRepo.GetBySessionIDs(context.Background(), nil, []string{"cs_test_123"})
	if len(rows) != 1 {
		t.Fatalf("expected one pending purchase, got %d", len(rows))
	}
	p := rows[0]
	if p.Status != types.PurchaseStatusPending {
		t.Fatalf("expected pending status, got %q", p.Status)
	}
	if p.Amount != 500 || p.UserID != userID || p.CourseID != course.ID {
		t.Fatalf("unexpected purchase row: %+v", p)
	}
}

func TestCreateCheckoutSession_GatewayFailureLeavesNoRow(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	f.gateway.createErr = errBoom

	_, err := f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), course.ID)
	status, _ := apierr.StatusOf(err)
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502 on gateway failure, got %d", status)
	}
	if len(f.purchaseRepo.purchases) != 0 {
		t.Fatalf("no purchase row may exist after gateway failure")
	}
}

func TestCreateCheckoutSession_EmptyRedirectURLLeavesNoRow(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	f.gateway.session = &CheckoutSession{ID: "cs_x", URL: ""}

	_, err := f.svc.CreateCheckoutSession(ctxWithUser(uuid.New()), course.ID)
	status, _ := apierr.StatusOf(err)
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502 on empty redirect url, got %d", status)
	}
	if len(f.purchaseRepo.purchases) != 0 {
		t.Fatalf("no purchase row may exist when the gateway returned no url")
	}
}

func TestHandleGatewayEvent_BadSignature(t *testing.T) {
	f := newPurchaseFixture(t)
	f.gateway.verifyErr = errBoom

	err := f.svc.HandleGatewayEvent(context.Background(), []byte(`{}`), "bad-sig")
	status, code := apierr.StatusOf(err)
	if status != http.StatusBadRequest || code != "invalid_webhook_signature" {
		t.Fatalf("expected 400 invalid_webhook_signature, got %d %q", status, code)
	}
	if !f.gateway.verifyCalled || f.gateway.gotSignature != "bad-sig" {
		t.Fatalf("verification must receive the raw signature header")
	}
}

func TestHandleGatewayEvent_RejectsOtherEventTypes(t *testing.T) {
	f := newPurchaseFixture(t)
	f.gateway.event = &GatewayEvent{Type: "payment_intent.created"}

	err := f.svc.HandleGatewayEvent(context.Background(), []byte(`{}`), "sig")
	status, code := apierr.StatusOf(err)
	if status != http.StatusBadRequest || code != "unhandled_event_type" {
		t.Fatalf("expected 400 unhandled_event_type, got %d %q", status, code)
	}
	if len(f.purchaseRepo.purchases) != 0 {
		t.Fatalf("rejected events must not touch state")
	}
}

func TestHandleGatewayEvent_UnknownSession(t *testing.T) {
	f := newPurchaseFixture(t)
	f.gateway.event = &GatewayEvent{Type: GatewayEventCheckoutCompleted, SessionID: "cs_unknown"}

	err := f.svc.HandleGatewayEvent(context.Background(), []byte(`{}`), "sig")
	status, code := apierr.StatusOf(err)
	if status != http.StatusNotFound || code != "purchase_not_found" {
		t.Fatalf("expected 404 purchase_not_found, got %d %q", status, code)
	}
}

func TestHandleGatewayEvent_CompletesCheckout(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	lectures := f.addLectures(t, course.ID, 3)
	userID := uuid.New()

	purchase := &types.Purchase{
		ID:               uuid.New(),
		CourseID:         course.ID,
		UserID:           userID,
		Amount:           500,
		Status:           types.PurchaseStatusPending,
		PaymentSessionID: "cs_done",
	}
	if _, err := f.purchaseRepo.Create(context.Background(), nil, []*types.Purchase{purchase}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	f.gateway.event = &GatewayEvent{
		Type:             GatewayEventCheckoutCompleted,
		SessionID:        "cs_done",
		AmountTotalMinor: 50000,
	}
	if err := f.svc.HandleGatewayEvent(context.Background(), []byte(`{}`), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.purchaseRepo.purchases[purchase.ID]
	if got.Status != types.PurchaseStatusComplete {
		t.Fatalf("expected complete status, got %q", got.Status)
	}
	if got.Amount != 500 {
		t.Fatalf("expected amount 500 from amount_total 50000, got %d", got.Amount)
	}
	for _, l := range lectures {
		if !f.lectureRepo.lectures[l.ID].IsPreviewFree {
			t.Fatalf("expected all lectures unlocked after completion")
		}
	}
	if !f.userRepo.enrolled[enrollKey{userID, course.ID}] {
		t.Fatalf("user-side enrollment missing")
	}
	if !f.courseRepo.enrolled[enrollKey{course.ID, userID}] {
		t.Fatalf("course-side enrollment missing")
	}
}

func TestHandleGatewayEvent_ReplayConverges(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	f.addLectures(t, course.ID, 2)
	userID := uuid.New()

	purchase := &types.Purchase{
		ID:               uuid.New(),
		CourseID:         course.ID,
		UserID:           userID,
		Amount:           500,
		Status:           types.PurchaseStatusPending,
		PaymentSessionID: "cs_replay",
	}
	if _, err := f.purchaseRepo.Create(context.Background(), nil, []*types.Purchase{purchase}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	f.gateway.event = &GatewayEvent{
		Type:             GatewayEventCheckoutCompleted,
		SessionID:        "cs_replay",
		AmountTotalMinor: 50000,
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.HandleGatewayEvent(context.Background(), []byte(`{}`), "sig"); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	if len(f.purchaseRepo.purchases) != 1 {
		t.Fatalf("replay must not create rows, got %d", len(f.purchaseRepo.purchases))
	}
	got := f.purchaseRepo.purchases[purchase.ID]
	if got.Status != types.PurchaseStatusComplete || got.Amount != 500 {
		t.Fatalf("replay diverged: status=%q amount=%d", got.Status, got.Amount)
	}
	ids, _ := f.userRepo.GetEnrolledCourseIDs(context.Background(), nil, userID)
	if len(ids) != 1 {
		t.Fatalf("enrollment must stay a set, got %d entries", len(ids))
	}
}

func TestGetCourseDetailWithPurchaseStatus(t *testing.T) {
	f := newPurchaseFixture(t)
	course := f.addCourse(t, "Go from Zero", 500)
	userID := uuid.New()

	detail, err := f.svc.GetCourseDetailWithPurchaseStatus(ctxWithUser(userID), course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Purchased {
		t.Fatalf("expected purchased=false without any purchase")
	}

	pending := &types.Purchase{
		ID: uuid.New(), CourseID: course.ID, UserID: userID,
		Status: types.PurchaseStatusPending, PaymentSessionID: "cs_p",
	}
	if _, err := f.purchaseRepo.Create(context.Background(), nil, []*types.Purchase{pending}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	detail, err = f.svc.GetCourseDetailWithPurchaseStatus(ctxWithUser(userID), course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Purchased {
		t.Fatalf("a pending purchase must not count as purchased")
	}

	pending.Status = types.PurchaseStatusComplete
	detail, err = f.svc.GetCourseDetailWithPurchaseStatus(ctxWithUser(userID), course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !detail.Purchased {
		t.Fatalf("expected purchased=true after completed purchase")
	}
}

func TestGetCourseDetailWithPurchaseStatus_CourseNotFound(t *testing.T) {
	f := newPurchaseFixture(t)
	_, err := f.svc.GetCourseDetailWithPurchaseStatus(ctxWithUser(uuid.New()), uuid.New())
	status, _ := apierr.StatusOf(err)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing course, got %d", status)
	}
}
