package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/requestdata"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// CourseDetailWithStatus pairs a full course view with whether the
// requesting user holds a completed purchase for it.
type CourseDetailWithStatus struct {
	Course    *types.Course `json:"course"`
	Purchased bool          `json:"purchased"`
}

type PurchaseService interface {
	// CreateCheckoutSession returns the gateway redirect URL. A pending
	// Purchase row exists only after the gateway produced that URL.
	CreateCheckoutSession(ctx context.Context, courseID uuid.UUID) (string, error)
	// HandleGatewayEvent verifies and reconciles one raw webhook
	// delivery. Event types outside the allow-list are dropped.
	HandleGatewayEvent(ctx context.Context, payload []byte, signatureHeader string) error
	GetCourseDetailWithPurchaseStatus(ctx context.Context, courseID uuid.UUID) (*CourseDetailWithStatus, error)
	GetCompletedPurchases(ctx context.Context) ([]*types.Purchase, error)
}

type purchaseService struct {
	db           *gorm.DB
	log          *logger.Logger
	cfg          *config.Config
	gateway      PaymentGateway
	userRepo     repos.UserRepo
	courseRepo   repos.CourseRepo
	lectureRepo  repos.LectureRepo
	purchaseRepo repos.PurchaseRepo
}

func NewPurchaseService(
	db *gorm.DB,
	log *logger.Logger,
	cfg *config.Config,
	gateway PaymentGateway,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	purchaseRepo repos.PurchaseRepo,
) PurchaseService {
	return &purchaseService{
		db:           db,
		log:          log.With("service", "PurchaseService"),
		cfg:          cfg,
		gateway:      gateway,
		userRepo:     userRepo,
		courseRepo:   courseRepo,
		lectureRepo:  lectureRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (ps *purchaseService) CreateCheckoutSession(ctx context.Context, courseID uuid.UUID) (string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", apierr.Unauthorized("unauthorized", fmt.Errorf("no authenticated user in context"))
	}
	courses, err := ps.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return "", fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 {
		return "", apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	course := courses[0]
	if course.Price <= 0 {
		return "", apierr.BadRequest("price_not_set", fmt.Errorf("course price is not set"))
	}
	if strings.TrimSpace(course.Title) == "" || course.ThumbnailURL == "" {
		return "", apierr.BadRequest("invalid_course_details", fmt.Errorf("invalid course details"))
	}

	session, err := ps.gateway.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		AmountMinorUnits: course.Price * 100,
		Currency:         ps.cfg.CheckoutCurrency,
		ItemName:         course.Title,
		ItemImageURL:     course.ThumbnailURL,
		SuccessURL:       ps.cfg.FrontendURL + "/course-progress/" + course.ID.String(),
		CancelURL:        ps.cfg.FrontendURL + "/course-details/" + course.ID.String(),
		Metadata: map[string]string{
			"courseId": course.ID.String(),
			"userId":   rd.UserID.String(),
		},
	})
	if err != nil {
		return "", apierr.Upstream("checkout_session_failed", err)
	}
	if session == nil || session.URL == "" {
		return "", apierr.Upstream("checkout_session_failed", fmt.Errorf("gateway returned no redirect url"))
	}

	purchase := &types.Purchase{
		ID:               uuid.New(),
		CourseID:         course.ID,
		UserID:           rd.UserID,
		Amount:           course.Price,
		Status:           types.PurchaseStatusPending,
		PaymentSessionID: session.ID,
	}
	if _, err := ps.purchaseRepo.Create(ctx, nil, []*types.Purchase{purchase}); err != nil {
		return "", fmt.Errorf("create pending purchase: %w", err)
	}
	ps.log.Info("Checkout session created", "course_id", course.ID, "user_id", rd.UserID, "session_id", session.ID)
	return session.URL, nil
}

func (ps *purchaseService) HandleGatewayEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := ps.gateway.VerifyEvent(payload, signatureHeader)
	if err != nil {
		return apierr.BadRequest("invalid_webhook_signature", err)
	}
	if event.Type != GatewayEventCheckoutCompleted {
		return apierr.BadRequest("unhandled_event_type", fmt.Errorf("unhandled event type %q", event.Type))
	}
	return ps.reconcileCompletedCheckout(ctx, event)
}

// reconcileCompletedCheckout moves a pending purchase to complete and
// applies every side effect of a paid checkout. Each step is idempotent,
// so a redelivered event converges to the same state.
func (ps *purchaseService) reconcileCompletedCheckout(ctx context.Context, event *GatewayEvent) error {
	purchases, err := ps.purchaseRepo.GetBySessionIDs(ctx, nil, []string{event.SessionID})
	if err != nil {
		return fmt.Errorf("load purchase by session: %w", err)
	}
	if len(purchases) == 0 {
		return apierr.NotFound("purchase_not_found", fmt.Errorf("purchase not found for session"))
	}
	purchase := purchases[0]

	courses, err := ps.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{purchase.CourseID})
	if err != nil {
		return fmt.Errorf("load purchased course: %w", err)
	}
	if len(courses) == 0 {
		return apierr.BadRequest("invalid_purchase_state", fmt.Errorf("purchase references missing course"))
	}
	course := courses[0]

	// The gateway's settled total wins over the amount captured at
	// session creation.
	if event.AmountTotalMinor > 0 {
		purchase.Amount = event.AmountTotalMinor / 100
	}
	purchase.Status = types.PurchaseStatusComplete

	if err := ps.unlockCourseLectures(ctx, course.ID); err != nil {
		return err
	}
	if err := ps.purchaseRepo.Save(ctx, nil, purchase); err != nil {
		return fmt.Errorf("save completed purchase: %w", err)
	}

	// Both enrollment sets are independent set-inserts; neither depends
	// on the other having run.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ps.userRepo.AddEnrolledCourse(gctx, nil, purchase.UserID, course.ID)
	})
	g.Go(func() error {
		return ps.courseRepo.AddEnrolledStudent(gctx, nil, course.ID, purchase.UserID)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("record enrollment: %w", err)
	}

	ps.log.Info("Purchase completed",
		"purchase_id", purchase.ID,
		"course_id", course.ID,
		"user_id", purchase.UserID,
		"amount", purchase.Amount,
	)
	return nil
}

// unlockCourseLectures grants full access after payment: every lecture
// in the course becomes preview-free.
func (ps *purchaseService) unlockCourseLectures(ctx context.Context, courseID uuid.UUID) error {
	if err := ps.lectureRepo.MarkAllPreviewFree(ctx, nil, courseID); err != nil {
		return fmt.Errorf("unlock course lectures: %w", err)
	}
	return nil
}

func (ps *purchaseService) GetCourseDetailWithPurchaseStatus(ctx context.Context, courseID uuid.UUID) (*CourseDetailWithStatus, error) {
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
	purchases, err := ps.purchaseRepo.GetByUserAndCourse(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	purchased := false
	for _, p := range purchases {
		if p.Status == types.PurchaseStatusComplete {
			purchased = true
			break
		}
	}
	return &CourseDetailWithStatus{Course: courses[0], Purchased: purchased}, nil
}

func (ps *purchaseService) GetCompletedPurchases(ctx context.Context) ([]*types.Purchase, error) {
	purchases, err := ps.purchaseRepo.GetCompleted(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load completed purchases: %w", err)
	}
	return purchases, nil
}
