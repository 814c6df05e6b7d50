package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/courseloom/courseloom-backend/internal/logger"
)

// GatewayEventCheckoutCompleted is the only event type that drives state
// change; everything else is rejected by the orchestrator.
const GatewayEventCheckoutCompleted = "checkout.session.completed"

type CheckoutSessionRequest struct {
	AmountMinorUnits int64
	Currency         string
	ItemName         string
	ItemImageURL     string
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type GatewayEvent struct {
	Type string
	// SessionID correlates the event back to a Purchase row.
	SessionID string
	// AmountTotalMinor is the final charged amount in minor units;
	// 0 when the gateway did not report one.
	AmountTotalMinor int64
}

// PaymentGateway is the boundary to the payment processor. VerifyEvent
// must authenticate the raw payload against the signature header the
// gateway actually sent; it is the sole auth check on the webhook route.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	VerifyEvent(payload []byte, signatureHeader string) (*GatewayEvent, error)
}

type stripeGateway struct {
	log           *logger.Logger
	webhookSecret string
}

func NewStripeGateway(log *logger.Logger, secretKey, webhookSecret string) (PaymentGateway, error) {
	serviceLog := log.With("service", "StripeGateway")
	if secretKey == "" {
		return nil, fmt.Errorf("missing stripe secret key")
	}
	if webhookSecret == "" {
		serviceLog.Warn("Stripe webhook secret not set, webhook verification will fail")
	}
	stripe.Key = secretKey
	return &stripeGateway{log: serviceLog, webhookSecret: webhookSecret}, nil
}

func (sg *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.ItemName),
	}
	if req.ItemImageURL != "" {
		productData.Images = stripe.StringSlice([]string{req.ItemImageURL})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					ProductData: productData,
					UnitAmount:  stripe.Int64(req.AmountMinorUnits),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	s, err := session.New(params)
	if err != nil {
		sg.log.Error("Stripe checkout session create failed", "error", err)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (sg *stripeGateway) VerifyEvent(payload []byte, signatureHeader string) (*GatewayEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, sg.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}
	out := &GatewayEvent{Type: string(event.Type)}
	if string(event.Type) == GatewayEventCheckoutCompleted {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session payload: %w", err)
		}
		out.SessionID = cs.ID
		out.AmountTotalMinor = cs.AmountTotal
	}
	return out, nil
}
