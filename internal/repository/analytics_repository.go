package repository

import (
	"lms_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// AnalyticsRepository 平台/讲师维度的统计查询。instructorID 为 0 时表示
// 全平台口径，非 0 时只统计该讲师名下课程。
type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

func (r *AnalyticsRepository) CountUsers() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *AnalyticsRepository) CountUsersByRole() ([]model.RoleCount, error) {
	var counts []model.RoleCount
	err := r.DB.Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&counts).Error
	return counts, err
}

func (r *AnalyticsRepository) CountCourses(instructorID uint) (int64, error) {
	var count int64
	query := r.DB.Model(&model.Course{})
	if instructorID != 0 {
		query = query.Where("instructor_id = ?", instructorID)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *AnalyticsRepository) CountEnrollments(instructorID uint) (int64, error) {
	var count int64
	query := r.DB.Model(&model.CourseEnrollment{})
	if instructorID != 0 {
		query = query.Joins("JOIN courses ON courses.id = course_enrollments.course_id").
			Where("courses.instructor_id = ?", instructorID)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *AnalyticsRepository) CountCompletedEnrollments(instructorID uint) (int64, error) {
	var count int64
	query := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_enrollments.completed = ?", true)
	if instructorID != 0 {
		query = query.Joins("JOIN courses ON courses.id = course_enrollments.course_id").
			Where("courses.instructor_id = ?", instructorID)
	}
	err := query.Count(&count).Error
	return count, err
}

// Revenue 指定时间段内的收入：每条报名按课程标价计入
func (r *AnalyticsRepository) Revenue(instructorID uint, from, to time.Time) (float64, error) {
	var revenue float64
	query := r.DB.Model(&model.CourseEnrollment{}).
		Joins("JOIN courses ON courses.id = course_enrollments.course_id").
		Where("course_enrollments.enrolled_at >= ? AND course_enrollments.enrolled_at < ?", from, to)
	if instructorID != 0 {
		query = query.Where("courses.instructor_id = ?", instructorID)
	}
	err := query.Select("COALESCE(SUM(courses.price), 0)").Scan(&revenue).Error
	return revenue, err
}

// CoursePriceSum 名下课程的标价总和
func (r *AnalyticsRepository) CoursePriceSum(instructorID uint) (float64, error) {
	var sum float64
	query := r.DB.Model(&model.Course{})
	if instructorID != 0 {
		query = query.Where("instructor_id = ?", instructorID)
	}
	err := query.Select("COALESCE(SUM(price), 0)").Scan(&sum).Error
	return sum, err
}

// StudentEnrollments 某学生的全部选课；instructorID 非 0 时只看该讲师课程里的
func (r *AnalyticsRepository) StudentEnrollments(studentID, instructorID uint) ([]model.CourseEnrollment, error) {
	var enrollments []model.CourseEnrollment
	query := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_enrollments.student_id = ?", studentID).
		Preload("Course").
		Order("course_enrollments.enrolled_at DESC")
	if instructorID != 0 {
		query = query.Joins("JOIN courses ON courses.id = course_enrollments.course_id").
			Where("courses.instructor_id = ?", instructorID)
	}
	err := query.Find(&enrollments).Error
	return enrollments, err
}

// TopCourses 按报名量排序的课程榜单
func (r *AnalyticsRepository) TopCourses(instructorID uint, limit int) ([]model.CourseStat, error) {
	var stats []model.CourseStat
	query := r.DB.Model(&model.CourseEnrollment{}).
		Joins("JOIN courses ON courses.id = course_enrollments.course_id").
		Select("courses.id AS course_id, courses.title AS title, COUNT(*) AS enrollments, COALESCE(SUM(courses.price), 0) AS revenue").
		Group("courses.id, courses.title").
		Order("enrollments DESC").
		Limit(limit)
	if instructorID != 0 {
		query = query.Where("courses.instructor_id = ?", instructorID)
	}
	err := query.Scan(&stats).Error
	return stats, err
}
