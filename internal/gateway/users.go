package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// The user endpoints are relayed as-is; the portal does not model accounts.

func (c *Client) RegisterUser(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.relay(ctx, "register_user", "/api/users/register", body, true)
}

func (c *Client) Login(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.relay(ctx, "login", "/api/users/login", body, true)
}

func (c *Client) ForgotPassword(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.relay(ctx, "forgot_password", "/api/users/forgot-password", body, true)
}

func (c *Client) ResetPassword(ctx context.Context, resetToken string, body json.RawMessage) (json.RawMessage, error) {
	return c.relay(ctx, "reset_password", "/api/users/reset-password/"+url.PathEscape(resetToken), body, true)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.relay(ctx, "logout", "/api/users/logout", nil, false)
	return err
}

func (c *Client) relay(ctx context.Context, endpoint, path string, body json.RawMessage, public bool) (json.RawMessage, error) {
	var data json.RawMessage
	cl := call{endpoint: endpoint, method: http.MethodPost, path: path, public: public}
	if len(body) > 0 {
		cl.body = body
	}

	if _, err := c.do(ctx, cl, &data); err != nil {
		return nil, err
	}
	return data, nil
}
