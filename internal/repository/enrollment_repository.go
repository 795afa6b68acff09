package repository

import (
	"errors"
	"lms_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.CourseEnrollment) error {
	return r.DB.Create(enrollment).Error
}

// FindByPair 查询学生在某课程的选课记录，不存在时返回 (nil, nil)
func (r *EnrollmentRepository) FindByPair(studentID, courseID uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := r.DB.Preload("Student").Preload("Course").First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByStudent(studentID uint) ([]model.CourseEnrollment, error) {
	var enrollments []model.CourseEnrollment
	err := r.DB.Where("student_id = ?", studentID).
		Preload("Course.Instructor").
		Preload("Course.Category").
		Preload("Course.Modules.Lessons").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint) ([]model.CourseEnrollment, error) {
	var enrollments []model.CourseEnrollment
	err := r.DB.Where("course_id = ?", courseID).
		Preload("Student").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// SetProgress 更新未达标进度：progress < 100 时 completed 归零、completed_at 清空
func (r *EnrollmentRepository) SetProgress(id uint, progress float64) error {
	return r.DB.Model(&model.CourseEnrollment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":     progress,
			"completed":    false,
			"completed_at": nil,
		}).Error
}

// Complete 条件更新把选课置为已完成。只有当前 completed = false 的行会被改写，
// 返回值指示本次调用是否真正触发了 false→true 跃迁 —— 两条完成路径
// (课时完成重算 / 直接百分比更新) 并发竞争时最多一方拿到 true，
// 证书签发只在拿到 true 的一方执行。已完成的行只刷新 progress，
// completed_at 保持首次跃迁时间。
func (r *EnrollmentRepository) Complete(id uint, progress float64, completedAt time.Time) (bool, error) {
	res := r.DB.Model(&model.CourseEnrollment{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{
			"progress":     progress,
			"completed":    true,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := r.DB.Model(&model.CourseEnrollment{}).Where("id = ?", id).
		Update("progress", progress).Error
	return false, err
}

func (r *EnrollmentRepository) SetCertificateURL(id uint, url string) error {
	return r.DB.Model(&model.CourseEnrollment{}).Where("id = ?", id).
		Update("certificate_url", url).Error
}

// FindCompleted 只返回已结业的选课记录，未结业或未选课返回 (nil, nil)
func (r *EnrollmentRepository) FindCompleted(studentID, courseID uint) (*model.CourseEnrollment, error) {
	var enrollment model.CourseEnrollment
	err := r.DB.Where("student_id = ? AND course_id = ? AND completed = ?", studentID, courseID, true).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListCertified 学生所有已结业且生成过证书的选课，按结业时间倒序
func (r *EnrollmentRepository) ListCertified(studentID uint) ([]model.CourseEnrollment, error) {
	var enrollments []model.CourseEnrollment
	err := r.DB.Where("student_id = ? AND completed = ? AND certificate_url <> ''", studentID, true).
		Preload("Course").
		Order("completed_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountCompletedByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_id = ? AND completed = ?", courseID, true).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) CountRecentByCourse(courseID uint, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_id = ? AND enrolled_at >= ?", courseID, since).Count(&count).Error
	return count, err
}

func (r *EnrollmentRepository) AverageProgressByCourse(courseID uint) (float64, error) {
	var avg float64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(AVG(progress), 0)").
		Scan(&avg).Error
	return avg, err
}
