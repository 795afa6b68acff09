package controller

import (
	"errors"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 把服务层哨兵错误映射成统一响应，
// 未识别的错误按 500 处理并记日志
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAlreadyEnrolled),
		errors.Is(err, util.ErrAlreadyReviewed),
		errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrLessonNotFound),
		errors.Is(err, util.ErrEnrollmentNotFound),
		errors.Is(err, util.ErrReviewNotFound),
		errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrMessageNotFound),
		errors.Is(err, util.ErrReceiverNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied),
		errors.Is(err, util.ErrNotEnrolled),
		errors.Is(err, util.ErrCourseNotCompleted):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidProgress):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
