package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type ReviewService struct {
	ReviewRepo     *repository.ReviewRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *ReviewService {
	return &ReviewService{
		ReviewRepo:     reviewRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
	}
}

// ReviewRequest 评价请求体，评分限定 1~5
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// Create 只有已选课学生才能评价，且每门课只能评价一次
func (s *ReviewService) Create(studentID, courseID uint, req *ReviewRequest) (*model.CourseReview, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment, err := s.EnrollmentRepo.FindByPair(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, util.ErrNotEnrolled
	}

	existing, err := s.ReviewRepo.FindByPair(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadyReviewed
	}

	review := &model.CourseReview{
		StudentID: studentID,
		CourseID:  courseID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.ReviewRepo.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}

// CourseReviewSummary 课程评价汇总
type CourseReviewSummary struct {
	Reviews       []model.CourseReview `json:"reviews"`
	AverageRating float64              `json:"averageRating"`
	TotalReviews  int64                `json:"totalReviews"`
}

func (s *ReviewService) CourseSummary(courseID uint) (*CourseReviewSummary, error) {
	reviews, err := s.ReviewRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	avg, total, err := s.ReviewRepo.AverageByCourse(courseID)
	if err != nil {
		return nil, err
	}
	return &CourseReviewSummary{
		Reviews:       reviews,
		AverageRating: avg,
		TotalReviews:  total,
	}, nil
}

// Update 只能修改自己的评价
func (s *ReviewService) Update(reviewID, studentID uint, req *ReviewRequest) (*model.CourseReview, error) {
	review, err := s.ReviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrReviewNotFound
		}
		return nil, err
	}
	if review.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	if err := s.ReviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(reviewID, userID uint, isAdmin bool) error {
	review, err := s.ReviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrReviewNotFound
		}
		return err
	}
	if review.StudentID != userID && !isAdmin {
		return util.ErrPermissionDenied
	}
	return s.ReviewRepo.Delete(reviewID)
}
