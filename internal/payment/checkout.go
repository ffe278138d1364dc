package payment

import (
	"context"
	"fmt"

	paymentdomain "github.com/geocoder89/regportal/internal/domain/payment"
)

// CheckoutOptions configure the hosted checkout overlay.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"orderId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}

// CheckoutResult is what the overlay hands back: either a completed payment or a dismissal.
type CheckoutResult struct {
	Dismissed bool
	OrderID   string
	PaymentID string
	Signature string
}

// Overlay is the hosted checkout. Open blocks until the attendee pays, closes
// the overlay, or it fails.
type Overlay interface {
	Open(ctx context.Context, opts CheckoutOptions) (CheckoutResult, error)
}

func (c Checkout) Options() CheckoutOptions {
	return CheckoutOptions{
		Key:         c.Order.RazorpayKeyID,
		Amount:      c.Amount,
		Currency:    c.Order.Currency,
		OrderID:     c.Order.OrderID,
		Name:        c.EventName,
		Description: fmt.Sprintf("Registration %s (%s)", c.RegNum, c.Category),
		Prefill:     c.Prefill,
	}
}

// Run drives one full attempt: order, overlay, verification.
// An error is returned only when no order could be created.
func (f *Flow) Run(ctx context.Context, registrationID string, overlay Overlay) (Outcome, error) {
	co, err := f.Initiate(ctx, registrationID)
	if err != nil {
		return Outcome{}, err
	}

	res, err := overlay.Open(ctx, co.Options())
	if err != nil {
		f.count(string(KindError))
		return Outcome{
			Kind:           KindError,
			RegistrationID: co.RegistrationID,
			PaymentID:      co.Order.PaymentID,
			Message:        err.Error(),
			Code:           CodeCheckout,
		}, nil
	}

	if res.Dismissed {
		return f.Dismiss(ctx, co.RegistrationID, co.Order.PaymentID), nil
	}

	return f.Verify(ctx, co.RegistrationID, paymentdomain.VerifyRequest{
		RazorpayOrderID:   res.OrderID,
		RazorpayPaymentID: res.PaymentID,
		RazorpaySignature: res.Signature,
		PaymentID:         co.Order.PaymentID,
	}), nil
}
