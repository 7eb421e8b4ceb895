package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// Gateway abstracts the upstream payment provider
type Gateway interface {
	// Authorize opens the payment attempt and returns the provider
	// reference plus the URI the payer completes the payment with
	Authorize(ctx context.Context, session *PaymentSession) (externalRef, paymentURI string, err error)

	// Capture settles an authorized payment
	Capture(ctx context.Context, session *PaymentSession) (captureRef string, err error)

	// Refund returns a captured payment to the payer
	Refund(ctx context.Context, session *PaymentSession) error
}

// upiGateway is a mock UPI provider. It hands out deep links a UPI app
// would open and accepts every capture and refund.
type upiGateway struct {
	payeeID   string
	payeeName string
	currency  string
}

func NewUPIGateway(cfg *config.Config) Gateway {
	return &upiGateway{
		payeeID:   cfg.Payment.UPIPayeeID,
		payeeName: cfg.Payment.UPIPayeeName,
		currency:  cfg.Payment.Currency,
	}
}

func (g *upiGateway) Authorize(ctx context.Context, session *PaymentSession) (string, string, error) {
	externalRef := g.generateProviderRef("AUTH")
	paymentURI := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=%s&tn=Booking_%s",
		g.payeeID, g.payeeName, session.Amount, g.currency, session.BookingID)
	return externalRef, paymentURI, nil
}

func (g *upiGateway) Capture(ctx context.Context, session *PaymentSession) (string, error) {
	return g.generateProviderRef("CAP"), nil
}

func (g *upiGateway) Refund(ctx context.Context, session *PaymentSession) error {
	logger.GetDefault().Info("refund issued",
		"payment_ref", session.PaymentRef,
		"external_ref", session.ExternalRef,
		"amount", session.Amount,
	)
	return nil
}

func (g *upiGateway) generateProviderRef(kind string) string {
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("UPI_%s_%d_%s", kind, time.Now().Unix(), strings.ToUpper(shortUUID))
}
