package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// embedded marks untagged embedded structs, which encoding/json flattens.
const embedded = "~"

var jsonNamesOnce sync.Once

// useJSONNames makes the validator report fields by their json names.
func useJSONNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			switch {
			case name == "-":
				return ""
			case name == "" && sf.Anonymous:
				return embedded
			}
			return name
		})
	})
}

func BindJSON(ctx *gin.Context, out any) bool {
	useJSONNames()

	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
		return false
	}
	return true
}

func bindErrorDetails(err error) gin.H {
	var (
		invalid  validator.ValidationErrors
		syntax   *json.SyntaxError
		mismatch *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &invalid):
		fields := make([]FieldError, 0, len(invalid))
		for _, fe := range invalid {
			fields = append(fields, FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}

	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		return gin.H{"json": "invalid_json_syntax"}

	case errors.As(err, &mismatch):
		// Field already holds the dotted json path
		field := mismatch.Field
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + mismatch.Type.String(),
			}},
		}

	case errors.Is(err, io.EOF):
		return gin.H{"json": "empty_body"}

	case errors.As(err, &tooLarge):
		return gin.H{"json": "body_too_large", "limit": tooLarge.Limit}
	}

	return gin.H{"reason": err.Error()}
}

// fieldPath drops the root type and flattened embedded structs from the
// validator namespace, e.g. "AccompanyingRequest.accompanyingPersons[0].age".
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) < 2 {
		return fe.Field()
	}

	out := parts[:0]
	for _, p := range parts[1:] {
		if p != embedded {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "gte":
		return "must be " + param + " or more"
	case "lte":
		return "must be " + param + " or less"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "dive":
		return "contains an invalid entry"
	case "url":
		return "must be a valid URL"
	}
	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
