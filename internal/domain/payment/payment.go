package payment

import (
	"errors"
	"time"
)

// Order is what the backend returns from create-order.
type Order struct {
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	RazorpayKeyID string  `json:"razorpayKeyId"`
	PaymentID     string  `json:"paymentId"`
}

type CreateOrderRequest struct {
	EventRegistrationID string  `json:"eventRegistrationId"`
	Amount              float64 `json:"amount"`
}

type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
	RazorpaySignature string `json:"razorpaySignature" binding:"required"`
	PaymentID         string `json:"paymentId" binding:"required"`
}

type Status string

const (
	StatusInitiated      Status = "initiated"
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusError          Status = "error"
	StatusReconciledPaid Status = "reconciled_paid"
	StatusNeedsSupport   Status = "needs_support"
)

var ErrAttemptNotFound = errors.New("payment attempt not found")

// Attempt is the portal's ledger row for one create-order/verify round.
type Attempt struct {
	PaymentID      string     `json:"paymentId"`
	OrderID        string     `json:"orderId"`
	RegistrationID string     `json:"registrationId"`
	EventID        string     `json:"eventId"`
	UserID         string     `json:"userId"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Status         Status     `json:"status"`
	Detail         string     `json:"detail,omitempty"`
	Checks         int        `json:"checks"`
	NextCheckAt    *time.Time `json:"nextCheckAt,omitempty"`
	LockedBy       *string    `json:"lockedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
