package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/praxisflow/praxisflow/pkg/logging"
)

var billingTracer = otel.Tracer("praxisflow.internal.billing")

// CheckoutService creates Stripe Checkout sessions for practice
// subscriptions.
type CheckoutService struct {
	priceID    string
	successURL string
	cancelURL  string
	logger     *logging.Logger
	configured bool

	// create is swapped in tests; defaults to the Stripe SDK call.
	create func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutConfig configures the checkout service. SecretKey is set on the
// global Stripe client.
type CheckoutConfig struct {
	SecretKey  string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Logger     *logging.Logger
}

// NewCheckoutService creates a checkout service. With an empty secret key
// the service stays unconfigured and refuses to create sessions.
func NewCheckoutService(cfg CheckoutConfig) *CheckoutService {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &CheckoutService{
		priceID:    cfg.PriceID,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     cfg.Logger,
		configured: cfg.SecretKey != "" && cfg.PriceID != "",
		create:     session.New,
	}
}

// CreateSession creates a subscription checkout session for a practice and
// returns the hosted checkout URL.
func (s *CheckoutService) CreateSession(ctx context.Context, practiceID, email string) (string, error) {
	_, span := billingTracer.Start(ctx, "billing.create_checkout_session")
	defer span.End()
	span.SetAttributes(attribute.String("praxisflow.practice_id", practiceID))

	if practiceID == "" {
		return "", ErrMissingPracticeID
	}
	if !s.configured {
		return "", ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.priceID), Quantity: stripe.Int64(1)},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	// Stripe does not copy session metadata onto the subscription it
	// creates, so the practice id goes on both: the session metadata for
	// checkout.session.completed, the subscription metadata for the
	// lifecycle events after it.
	params.AddMetadata("practice_id", practiceID)
	params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
		Metadata: map[string]string{"practice_id": practiceID},
	}

	sess, err := s.create(params)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	s.logger.Info("checkout session created", "practice_id", practiceID, "session_id", sess.ID)
	return sess.URL, nil
}
