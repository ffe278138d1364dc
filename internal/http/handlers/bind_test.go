package handlers_test

import (
	"net/http"
	"testing"

	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func bindRouter() *gin.Engine {
	return setupRouter(http.MethodPost, "/details", func(ctx *gin.Context) {
		var req registration.BasicDetails
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusNoContent)
	})
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := perform(bindRouter(), http.MethodPost, "/details", `{"fullName":"A","email":"not-an-email"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"fullName":                "min",
		"email":                   "email",
		"mobile":                  "required",
		"mealPreference":          "required",
		"registrationCategory.id": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	body := `{"fullName":"Asha Rao","registrationCategory":{"id":"S1","name":"Delegate","amount":"free"}}`
	w := perform(bindRouter(), http.MethodPost, "/details", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeError(t, w)
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "registrationCategory.amount" {
		t.Fatalf("expected detail field registrationCategory.amount, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	w := perform(bindRouter(), http.MethodPost, "/details", `{"fullName":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, w).Error.Details.JSON; got == "" {
		t.Fatalf("expected a json detail, body=%s", w.Body.String())
	}
}

func TestBindJSON_EmbeddedFieldsAreFlattened(t *testing.T) {
	r := setupRouter(http.MethodPost, "/verify", func(ctx *gin.Context) {
		var req handlers.VerifyPaymentRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusNoContent)
	})

	w := perform(r, http.MethodPost, "/verify", `{"registrationId":"R1","razorpayOrderId":"order_1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	found := map[string]bool{}
	for _, fe := range decodeError(t, w).Error.Details.Fields {
		found[fe.Field] = true
	}
	for _, field := range []string{"razorpayPaymentId", "razorpaySignature", "paymentId"} {
		if !found[field] {
			t.Fatalf("missing field error for %q: %+v", field, found)
		}
	}
}
