package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError = validation.FieldError

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Configure(v)
	}
}

// BindJSON decodes and validates the body against its binding tags.
func BindJSON(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
		return false
	}
	return true
}

// DecodeJSON only decodes. Use it where the service normalises input before
// validating, so " Ada@X.io " is judged after trimming.
func DecodeJSON(ctx *gin.Context, out any) bool {
	if ctx.Request.Body == nil {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"json": "empty_body"})
		return false
	}

	if err := json.NewDecoder(ctx.Request.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"json": "empty_body"})
			return false
		}
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err))
		return false
	}
	return true
}

// BindForm binds multipart or urlencoded fields and validates binding tags.
func BindForm(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBind(out); err != nil {
		RespondBadRequest(ctx, "Invalid form data", bindErrorDetails(err))
		return false
	}
	return true
}

func bindErrorDetails(err error) gin.H {
	var (
		invalid   validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &invalid):
		return gin.H{"fields": validation.Fields(invalid)}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return gin.H{"json": "invalid_json_syntax"}
	case errors.As(err, &typeErr):
		// encoding/json already reports the path in JSON key names.
		field := typeErr.Field
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	default:
		return gin.H{"reason": err.Error()}
	}
}
