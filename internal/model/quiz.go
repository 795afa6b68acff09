package model

import (
	"time"
)

// Quiz 课时测验，一个课时最多挂一份测验
type Quiz struct {
	BaseModel
	Title     string         `gorm:"size:255;not null" json:"title"`
	LessonID  uint           `gorm:"unique;not null" json:"lessonId"`
	Lesson    Lesson         `gorm:"foreignKey:LessonID" json:"lesson"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 测验题目，选项以 JSON 数组字符串存储
type QuizQuestion struct {
	BaseModel
	QuizID        uint   `gorm:"index;not null" json:"quizId"`
	Text          string `gorm:"type:text;not null" json:"text"`
	Options       string `gorm:"type:text" json:"options"` // JSON array
	CorrectAnswer int    `gorm:"default:0" json:"correctAnswer"`
	Order         int    `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizAttempt 学生的一次作答，答案以 JSON 存储
type QuizAttempt struct {
	BaseModel
	StudentID   uint       `gorm:"index;not null" json:"studentId"`
	QuizID      uint       `gorm:"index;not null" json:"quizId"`
	Quiz        Quiz       `gorm:"foreignKey:QuizID" json:"quiz"`
	Answers     string     `gorm:"type:text" json:"answers"` // JSON
	Score       float64    `gorm:"default:0" json:"score"`
	IsCompleted bool       `gorm:"default:false" json:"isCompleted"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
