package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/geocoder89/regportal/internal/domain/payment"
)

func (c *Client) CreatePaymentOrder(ctx context.Context, eventID string, req payment.CreateOrderRequest) (payment.Order, error) {
	var order payment.Order
	ok, err := c.do(ctx, call{
		endpoint: "create_payment_order",
		method:   http.MethodPost,
		path:     "/api/payments/create-order/" + url.PathEscape(eventID),
		body:     req,
	}, &order)
	if err != nil {
		return payment.Order{}, err
	}
	if !ok || order.OrderID == "" {
		return payment.Order{}, &NetworkError{Op: "create_payment_order", Err: errMissingData}
	}
	return order, nil
}

// VerifyPayment returns nil only when the backend accepted the signature.
// A rejected signature surfaces as *APIError, a transport failure as *NetworkError.
func (c *Client) VerifyPayment(ctx context.Context, req payment.VerifyRequest) error {
	_, err := c.do(ctx, call{
		endpoint: "verify_payment",
		method:   http.MethodPost,
		path:     "/api/payments/verify",
		body:     req,
	}, nil)
	return err
}
