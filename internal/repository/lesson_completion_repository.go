package repository

import (
	"errors"
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type LessonCompletionRepository struct {
	DB *gorm.DB
}

func NewLessonCompletionRepository(db *gorm.DB) *LessonCompletionRepository {
	return &LessonCompletionRepository{DB: db}
}

// Find 查询学生的课时完成记录，不存在时返回 (nil, nil)
func (r *LessonCompletionRepository) Find(studentID, lessonID uint) (*model.LessonCompletion, error) {
	var completion model.LessonCompletion
	err := r.DB.Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		First(&completion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

func (r *LessonCompletionRepository) Create(completion *model.LessonCompletion) error {
	return r.DB.Create(completion).Error
}

// CountForCourse 统计学生在某课程下已完成的课时数，作为进度计算的分子
func (r *LessonCompletionRepository) CountForCourse(studentID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lesson_completions.student_id = ? AND course_modules.course_id = ?", studentID, courseID).
		Count(&count).Error
	return count, err
}

// LessonIDsForCourse 学生在某课程下所有已完成课时的 ID 列表
func (r *LessonCompletionRepository) LessonIDsForCourse(studentID, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lesson_completions.student_id = ? AND course_modules.course_id = ?", studentID, courseID).
		Pluck("lesson_completions.lesson_id", &ids).Error
	return ids, err
}

// CountModulesTouched 统计存在至少一条完成记录的章节数（宽口径的已完成章节数）
func (r *LessonCompletionRepository) CountModulesTouched(studentID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lesson_completions.student_id = ? AND course_modules.course_id = ?", studentID, courseID).
		Distinct("course_modules.id").
		Count(&count).Error
	return count, err
}
