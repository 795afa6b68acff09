package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

// FindByID 返回课程及其完整大纲（模块和课时按 Order 排序）
func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Instructor").
		Preload("Category").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.order ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(categoryID *uint, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{}).Where("published = ?", true)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Instructor").
		Preload("Category").
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).
		Preload("Category").
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Title(courseID uint) (string, error) {
	var title string
	err := r.DB.Model(&model.Course{}).Where("id = ?", courseID).
		Select("title").Scan(&title).Error
	return title, err
}

// CountLessons 课程全部模块下的课时总数，作为进度计算的分母
func (r *CourseRepository) CountLessons(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *CourseRepository) CountModules(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseModule{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// FindLesson 返回课时及其所属模块，调用方由 Module.CourseID 定位课程
func (r *CourseRepository) FindLesson(lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Module").First(&lesson, lessonID).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) FindModule(moduleID uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.First(&module, moduleID).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *CourseRepository) CreateModule(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}
