package payment

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindSuccess   Kind = "success"
	KindFailed    Kind = "failed"
	KindError     Kind = "error"
	KindDismissed Kind = "dismissed"
)

// Outcome is the single result of a checkout attempt. Only Kind decides where
// the attendee goes next; see Route.
type Outcome struct {
	Kind           Kind   `json:"kind"`
	RegistrationID string `json:"registrationId"`
	PaymentID      string `json:"paymentId,omitempty"`
	Message        string `json:"message,omitempty"`
	Code           string `json:"code,omitempty"`
}

const (
	CodeNetwork    = "NETWORK_ERROR"
	CodeUnexpected = "UNEXPECTED_ERROR"
	CodeCheckout   = "CHECKOUT_ERROR"

	networkMessage   = "Network error, check your connection"
	dismissedMessage = "Payment was cancelled. You can retry whenever you are ready."
)

// CheckoutPath is the payment page for a registration. Revisiting it always requests a fresh order.
func CheckoutPath(registrationID string) string {
	return "/registration/payment?registrationId=" + escape(registrationID)
}

// Route maps an outcome to the page the attendee lands on.
func Route(o Outcome) string {
	var b strings.Builder

	switch o.Kind {
	case KindSuccess:
		b.WriteString("/registration/payment/success")
	case KindFailed:
		b.WriteString("/registration/payment/failed")
	case KindError:
		b.WriteString("/registration/payment/error")
	default:
		return CheckoutPath(o.RegistrationID)
	}

	b.WriteString("?registrationId=" + escape(o.RegistrationID))
	b.WriteString("&paymentId=" + escape(o.PaymentID))

	if o.Kind == KindFailed || o.Kind == KindError {
		b.WriteString("&message=" + escape(o.Message))
	}
	if o.Kind == KindError {
		b.WriteString("&code=" + escape(o.Code))
	}
	return b.String()
}

// escape matches browser encodeURIComponent for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
