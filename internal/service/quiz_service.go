package service

import (
	"encoding/json"
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo       *repository.QuizRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewQuizService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository) *QuizService {
	return &QuizService{
		QuizRepo:       quizRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

// CreateQuizRequest 创建测验，题目随测验一起写入
type CreateQuizRequest struct {
	Title     string `json:"title" binding:"required"`
	Questions []struct {
		Text          string   `json:"text" binding:"required"`
		Options       []string `json:"options" binding:"required,min=2"`
		CorrectAnswer int      `json:"correctAnswer"`
		Order         int      `json:"order"`
	} `json:"questions" binding:"required,min=1"`
}

// Create 讲师给课时挂测验，课时归属校验由调用方的角色中间件保证
func (s *QuizService) Create(lessonID uint, req *CreateQuizRequest) (*model.Quiz, error) {
	if _, err := s.CourseRepo.FindLesson(lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	quiz := &model.Quiz{
		Title:    req.Title,
		LessonID: lessonID,
	}
	for _, q := range req.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			Text:          q.Text,
			Options:       string(options),
			CorrectAnswer: q.CorrectAnswer,
			Order:         q.Order,
		})
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetByLesson(lessonID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.ErrQuizNotFound
	}
	return quiz, nil
}

// SubmitRequest 作答：answers[i] 是第 i 题选中的选项下标
type SubmitRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// Submit 提交作答并按正确率打分，需要学生已选修测验所属课程
func (s *QuizService) Submit(studentID, quizID uint, req *SubmitRequest) (*model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	lesson, err := s.CourseRepo.FindLesson(quiz.LessonID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.EnrollmentRepo.FindByPair(studentID, lesson.Module.CourseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, util.ErrNotEnrolled
	}

	correct := 0
	for i, question := range quiz.Questions {
		if i < len(req.Answers) && req.Answers[i] == question.CorrectAnswer {
			correct++
		}
	}
	score := 0.0
	if len(quiz.Questions) > 0 {
		score = float64(correct) / float64(len(quiz.Questions)) * 100
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	attempt := &model.QuizAttempt{
		StudentID:   studentID,
		QuizID:      quizID,
		Answers:     string(answers),
		Score:       score,
		IsCompleted: true,
		SubmittedAt: &now,
	}
	if err := s.QuizRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *QuizService) ListAttempts(quizID, studentID uint) ([]model.QuizAttempt, error) {
	return s.QuizRepo.ListAttempts(quizID, studentID)
}
