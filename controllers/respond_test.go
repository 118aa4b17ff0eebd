package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-review-api/models"
	"research-review-api/services"
)

func TestRespondErrorMapsWorkflowErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		fields map[string]string
	}{
		{
			name:   "validation",
			err:    &services.ValidationError{Field: "title", Message: "is required"},
			status: http.StatusBadRequest,
			fields: map[string]string{"field": "title"},
		},
		{
			name:   "not found",
			err:    &services.NotFoundError{Entity: "paper", ID: "p1"},
			status: http.StatusNotFound,
		},
		{
			name:   "invalid transition",
			err:    &services.InvalidTransitionError{Action: services.ActionApprove, Status: models.StatusPendingFaculty, Role: models.RoleStaff},
			status: http.StatusConflict,
			fields: map[string]string{"status": "pending_faculty", "role": "staff", "action": "approve"},
		},
		{
			name:   "conflict",
			err:    &services.ConflictError{PaperID: "p1", Expected: models.StatusPendingAdmin},
			status: http.StatusConflict,
		},
		{
			name:   "persistence",
			err:    &services.PersistenceError{Op: "update paper", Cause: errors.New("connection refused")},
			status: http.StatusInternalServerError,
			fields: map[string]string{"error": "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/research/p1/approve", nil)

			respondError(c, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			for k, v := range tt.fields {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestRequireActorWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := requireActor(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
