package apierr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		known  bool
	}{
		{"validation", &aggregate.ValidationError{Violations: []aggregate.Violation{{Reason: aggregate.ReasonEmptyItems}}}, http.StatusBadRequest, "VALIDATION_ERROR", true},
		{"input", &service.InputError{Messages: []string{"name is required"}}, http.StatusBadRequest, "VALIDATION_ERROR", true},
		{"reference", &service.ReferenceError{Entity: "product", ID: 1, DeliveryCount: 2}, http.StatusConflict, "REFERENCED", true},
		{"conflict", &service.ConflictError{Field: "name", Message: "taken"}, http.StatusConflict, "CONFLICT", true},
		{"not found", errors.Wrap(repository.ErrNotFound, "delivery 4"), http.StatusNotFound, "NOT_FOUND", true},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", true},
		{"token", errors.Wrap(auth.ErrInvalidToken, "signature"), http.StatusUnauthorized, "UNAUTHORIZED", true},
		{"inactive", service.ErrAccountInactive, http.StatusForbidden, "FORBIDDEN", true},
		{"reset token", service.ErrInvalidResetToken, http.StatusBadRequest, "INVALID_TOKEN", true},
		{"persistence", errors.Wrap(service.ErrPersistence, "failed to create delivery"), http.StatusInternalServerError, "INTERNAL_ERROR", true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, known := Translate(tt.err)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.code, apiErr.Code)
			require.Equal(t, tt.known, known)
		})
	}
}

func TestWriteHidesPersistenceDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/deliveries", nil)

	Write(c, logrus.New(), errors.Wrap(service.ErrPersistence, "failed to create delivery: pq: connection reset"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "pq:")
	require.True(t, c.IsAborted())
}

func TestWriteIncludesReferenceCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/products/1", nil)

	Write(c, nil, &service.ReferenceError{Entity: "product", ID: 1, DeliveryCount: 3, ReturnCount: 1})

	var body struct {
		Code    string         `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "REFERENCED", body.Code)
	require.Equal(t, float64(3), body.Details["deliveries"])
	require.Equal(t, float64(1), body.Details["returns"])
	require.Equal(t, "product", body.Details["entity"])
}
