package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

// CreateCourseRequest 创建课程的请求体
type CreateCourseRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	CategoryID  *uint   `json:"categoryId"`
	Published   bool    `json:"published"`
}

func (s *CourseService) Create(instructorID uint, req *CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Thumbnail:    req.Thumbnail,
		CategoryID:   req.CategoryID,
		Published:    req.Published,
		InstructorID: instructorID,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(categoryID *uint, page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(categoryID, page, limit)
}

func (s *CourseService) ListByInstructor(instructorID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByInstructor(instructorID)
}

// Update 只有课程讲师本人或管理员可以修改
func (s *CourseService) Update(courseID, userID uint, isAdmin bool, req *CreateCourseRequest) (*model.Course, error) {
	course, err := s.Get(courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != userID && !isAdmin {
		return nil, util.ErrPermissionDenied
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Price = req.Price
	course.Thumbnail = req.Thumbnail
	course.CategoryID = req.CategoryID
	course.Published = req.Published
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(courseID, userID uint, isAdmin bool) error {
	course, err := s.Get(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != userID && !isAdmin {
		return util.ErrPermissionDenied
	}
	return s.CourseRepo.Delete(courseID)
}

// AddModuleRequest 章节
type AddModuleRequest struct {
	Title string `json:"title" binding:"required"`
	Order int    `json:"order"`
}

func (s *CourseService) AddModule(courseID, userID uint, isAdmin bool, req *AddModuleRequest) (*model.CourseModule, error) {
	course, err := s.Get(courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != userID && !isAdmin {
		return nil, util.ErrPermissionDenied
	}

	module := &model.CourseModule{
		Title:    req.Title,
		Order:    req.Order,
		CourseID: courseID,
	}
	if err := s.CourseRepo.CreateModule(module); err != nil {
		return nil, err
	}
	return module, nil
}

// AddLessonRequest 课时
type AddLessonRequest struct {
	Title    string           `json:"title" binding:"required"`
	Type     model.LessonType `json:"type" binding:"required,oneof=video article"`
	Content  string           `json:"content"`
	VideoURL string           `json:"videoUrl"`
	Duration int              `json:"duration"`
	Order    int              `json:"order"`
}

func (s *CourseService) AddLesson(moduleID, userID uint, isAdmin bool, req *AddLessonRequest) (*model.Lesson, error) {
	module, err := s.CourseRepo.FindModule(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	course, err := s.Get(module.CourseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != userID && !isAdmin {
		return nil, util.ErrPermissionDenied
	}

	lesson := &model.Lesson{
		Title:    req.Title,
		Type:     req.Type,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Duration: req.Duration,
		Order:    req.Order,
		ModuleID: moduleID,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}
