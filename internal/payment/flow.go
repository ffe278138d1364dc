package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	paymentdomain "github.com/geocoder89/regportal/internal/domain/payment"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/gateway"
	"github.com/geocoder89/regportal/internal/observability"
)

// InvalidAmountMessage is shown to the attendee when the registration carries no payable amount.
const InvalidAmountMessage = "Invalid registration amount"

var (
	ErrInvalidAmount         = errors.New("invalid registration amount")
	ErrAlreadyPaid           = errors.New("registration is already paid")
	ErrMissingRegistrationID = errors.New("registrationId is required")
)

type Backend interface {
	GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error)
	CreatePaymentOrder(ctx context.Context, eventID string, req paymentdomain.CreateOrderRequest) (paymentdomain.Order, error)
	VerifyPayment(ctx context.Context, req paymentdomain.VerifyRequest) error
}

// Ledger records attempts so failed verifications can be looked at later.
type Ledger interface {
	RecordInitiated(ctx context.Context, a paymentdomain.Attempt) error
	// RecordOutcome settles an initiated attempt of registrationID.
	RecordOutcome(ctx context.Context, registrationID, paymentID string, status paymentdomain.Status, detail string) error
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Checkout is the order summary shown before the hosted overlay opens.
// Amount is exactly what was sent to create-order.
type Checkout struct {
	Order          paymentdomain.Order `json:"order"`
	Amount         float64             `json:"amount"`
	RegistrationID string              `json:"registrationId"`
	RegNum         string              `json:"regNum"`
	EventID        string              `json:"eventId"`
	EventName      string              `json:"eventName"`
	Category       string              `json:"category"`
	Prefill        Prefill             `json:"prefill"`
}

type Flow struct {
	backend Backend
	ledger  Ledger
	prom    *observability.Prom
	log     *slog.Logger
}

// NewFlow wires the payment flow. ledger and prom may be nil.
func NewFlow(backend Backend, ledger Ledger, prom *observability.Prom, log *slog.Logger) *Flow {
	return &Flow{backend: backend, ledger: ledger, prom: prom, log: log}
}

func (f *Flow) count(kind string) {
	if f.prom != nil {
		f.prom.IncPaymentOutcome(kind)
	}
}

// Initiate requests a fresh order for the registration.
func (f *Flow) Initiate(ctx context.Context, registrationID string) (Checkout, error) {
	if registrationID == "" {
		return Checkout{}, ErrMissingRegistrationID
	}

	reg, err := f.backend.GetRegistration(ctx, registrationID)
	if err != nil {
		return Checkout{}, err
	}
	if reg.IsPaid {
		return Checkout{}, ErrAlreadyPaid
	}

	amount := reg.PayableAmount()
	if amount <= 0 {
		f.count("invalid_amount")
		return Checkout{}, ErrInvalidAmount
	}

	order, err := f.backend.CreatePaymentOrder(ctx, reg.EventID(), paymentdomain.CreateOrderRequest{
		EventRegistrationID: reg.ID,
		Amount:              amount,
	})
	if err != nil {
		return Checkout{}, err
	}

	co := Checkout{
		Order:          order,
		Amount:         amount,
		RegistrationID: reg.ID,
		RegNum:         reg.RegNum,
		EventID:        reg.EventID(),
		Category:       reg.Category.Name,
		Prefill:        Prefill{Name: reg.FullName, Email: reg.Email, Contact: reg.Mobile},
	}
	if reg.Event.Event != nil {
		co.EventName = reg.Event.Event.Name
	}

	f.record(ctx, func(ctx context.Context) error {
		return f.ledger.RecordInitiated(ctx, paymentdomain.Attempt{
			PaymentID:      order.PaymentID,
			OrderID:        order.OrderID,
			RegistrationID: reg.ID,
			EventID:        reg.EventID(),
			UserID:         reg.User,
			Amount:         amount,
			Currency:       order.Currency,
			Status:         paymentdomain.StatusInitiated,
		})
	})

	return co, nil
}

// Verify asks the backend to check the gateway signature and classifies the answer.
func (f *Flow) Verify(ctx context.Context, registrationID string, req paymentdomain.VerifyRequest) Outcome {
	out := Outcome{RegistrationID: registrationID, PaymentID: req.PaymentID}

	err := f.backend.VerifyPayment(ctx, req)
	switch apiErr, isAPI := gateway.AsAPIError(err); {
	case err == nil:
		out.Kind = KindSuccess
	case isAPI:
		out.Kind = KindFailed
		out.Message = apiErr.Message
	case gateway.IsNetwork(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindError
		out.Message = networkMessage
		out.Code = CodeNetwork
	default:
		out.Kind = KindError
		out.Message = err.Error()
		out.Code = CodeUnexpected
	}

	if err != nil {
		f.log.WarnContext(ctx, "payment_verify_not_successful",
			"registration_id", registrationID, "payment_id", req.PaymentID, "kind", out.Kind, "err", err)
	}

	f.count(string(out.Kind))
	f.recordOutcome(ctx, out, err)
	return out
}

// Dismiss keeps the attendee on the payment page. Nothing is marked failed.
func (f *Flow) Dismiss(ctx context.Context, registrationID, paymentID string) Outcome {
	f.count(string(KindDismissed))
	f.log.InfoContext(ctx, "payment_checkout_dismissed", "registration_id", registrationID, "payment_id", paymentID)

	return Outcome{
		Kind:           KindDismissed,
		RegistrationID: registrationID,
		PaymentID:      paymentID,
		Message:        dismissedMessage,
	}
}

func (f *Flow) recordOutcome(ctx context.Context, out Outcome, cause error) {
	if out.PaymentID == "" || out.RegistrationID == "" {
		return
	}

	status := paymentdomain.StatusSuccess
	detail := ""
	switch out.Kind {
	case KindFailed:
		status, detail = paymentdomain.StatusFailed, out.Message
	case KindError:
		status, detail = paymentdomain.StatusError, fmt.Sprint(cause)
	}

	f.record(ctx, func(ctx context.Context) error {
		return f.ledger.RecordOutcome(ctx, out.RegistrationID, out.PaymentID, status, detail)
	})
}

// record writes to the ledger on a context detached from request cancellation.
// Failures are logged and never change what the attendee sees.
func (f *Flow) record(ctx context.Context, fn func(context.Context) error) {
	if f.ledger == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		f.log.ErrorContext(ctx, "payment_ledger_write_failed", "err", err)
	}
}
