package repository

import (
	"errors"
	"lms_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

func (r *ReviewRepository) Create(review *model.CourseReview) error {
	return r.DB.Create(review).Error
}

func (r *ReviewRepository) FindByID(id uint) (*model.CourseReview, error) {
	var review model.CourseReview
	err := r.DB.Preload("Student").First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByPair 学生对课程的评价，不存在时返回 (nil, nil)
func (r *ReviewRepository) FindByPair(studentID, courseID uint) (*model.CourseReview, error) {
	var review model.CourseReview
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ListByCourse(courseID uint) ([]model.CourseReview, error) {
	var reviews []model.CourseReview
	err := r.DB.Where("course_id = ?", courseID).
		Preload("Student").
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepository) Update(review *model.CourseReview) error {
	return r.DB.Save(review).Error
}

func (r *ReviewRepository) Delete(id uint) error {
	return r.DB.Delete(&model.CourseReview{}, id).Error
}

// RatingCounts 自 since 起各评分档的数量
func (r *ReviewRepository) RatingCounts(since time.Time) ([]model.RatingCount, error) {
	var counts []model.RatingCount
	err := r.DB.Model(&model.CourseReview{}).
		Where("created_at >= ?", since).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Order("rating ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *ReviewRepository) AverageByCourse(courseID uint) (float64, int64, error) {
	var result struct {
		Avg   float64
		Total int64
	}
	err := r.DB.Model(&model.CourseReview{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS total").
		Scan(&result).Error
	return result.Avg, result.Total, err
}
