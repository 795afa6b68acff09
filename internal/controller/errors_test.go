package controller

import (
	"errors"
	"lms_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func recordStatus(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	handleServiceError(ctx, err)
	return w.Code
}

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{util.ErrAlreadyEnrolled, http.StatusConflict},
		{util.ErrAlreadyReviewed, http.StatusConflict},
		{util.ErrEmailRegistered, http.StatusConflict},
		{util.ErrCourseNotFound, http.StatusNotFound},
		{util.ErrLessonNotFound, http.StatusNotFound},
		{util.ErrEnrollmentNotFound, http.StatusNotFound},
		{util.ErrReceiverNotFound, http.StatusNotFound},
		{util.ErrPermissionDenied, http.StatusForbidden},
		{util.ErrNotEnrolled, http.StatusForbidden},
		{util.ErrCourseNotCompleted, http.StatusForbidden},
		{util.ErrInvalidProgress, http.StatusBadRequest},
		{errors.New("database gone"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := recordStatus(t, tt.err); got != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleServiceErrorWrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("enroll student"), util.ErrAlreadyEnrolled)
	if got := recordStatus(t, wrapped); got != http.StatusConflict {
		t.Fatalf("wrapped sentinel: status = %d, want %d", got, http.StatusConflict)
	}
}
