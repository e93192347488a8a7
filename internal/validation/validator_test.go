package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/validation"
)

type TestRequest struct {
	Handle   string `json:"handle" validate:"required,alphanum,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Handle:   "reader1",
		Email:    "test@example.com",
		Password: "password123",
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       TestRequest
		wantField string
	}{
		{
			name: "missing required field",
			req: TestRequest{
				Handle:   "",
				Email:    "test@example.com",
				Password: "password123",
			},
			wantField: "handle",
		},
		{
			name: "invalid email",
			req: TestRequest{
				Handle:   "reader1",
				Email:    "not-an-email",
				Password: "password123",
			},
			wantField: "email",
		},
		{
			name: "password too short",
			req: TestRequest{
				Handle:   "reader1",
				Email:    "test@example.com",
				Password: "short",
			},
			wantField: "password",
		},
		{
			name: "handle not alphanumeric",
			req: TestRequest{
				Handle:   "read er!",
				Email:    "test@example.com",
				Password: "password123",
			},
			wantField: "handle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, domainerrors.As(err, &domainErr)) {
				assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
				assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

				fields, ok := domainErr.Details.(map[string]string)
				if assert.True(t, ok, "details should carry field errors") {
					assert.Contains(t, fields, tt.wantField)
				}
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Handle:   "reader1",
		Email:    "bad",
		Password: "password123",
	}

	err := v.Validate(req)
	assert.Error(t, err)

	var domainErr *domainerrors.Error
	assert.True(t, domainerrors.As(err, &domainErr))

	// Should use JSON tag name "email", not struct field name "Email"
	fields, ok := domainErr.Details.(map[string]string)
	assert.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.NotContains(t, fields, "Email")
}
