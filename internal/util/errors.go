package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrNotEnrolled        = errors.New("you must be enrolled in this course")
	ErrCourseNotCompleted = errors.New("you have not completed this course")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrAlreadyReviewed    = errors.New("you have already reviewed this course")
	ErrReviewNotFound     = errors.New("review not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrReceiverNotFound   = errors.New("receiver not found")
)
