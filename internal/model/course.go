package model

// Category 课程分类
type Category struct {
	BaseModel
	Name string `gorm:"size:100;unique;not null" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// Course 一门课程，按 Order 排序的模块构成课程大纲
type Course struct {
	BaseModel
	Title        string         `gorm:"size:255;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        float64        `gorm:"default:0" json:"price"`
	Thumbnail    string         `gorm:"size:255" json:"thumbnail"`
	Published    bool           `gorm:"default:false" json:"published"`
	InstructorID uint           `gorm:"index;not null" json:"instructorId"`
	Instructor   User           `gorm:"foreignKey:InstructorID" json:"instructor"`
	CategoryID   *uint          `gorm:"index" json:"categoryId"`
	Category     *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Modules      []CourseModule `gorm:"foreignKey:CourseID" json:"modules"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程模块，包含有序的课时列表
type CourseModule struct {
	BaseModel
	Title    string   `gorm:"size:255;not null" json:"title"`
	Order    int      `gorm:"default:0" json:"order"`
	CourseID uint     `gorm:"index;not null" json:"courseId"`
	Lessons  []Lesson `gorm:"foreignKey:ModuleID" json:"lessons"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonArticle LessonType = "article"
)

// Lesson 课时，进度计算的最小单位
type Lesson struct {
	BaseModel
	Title    string       `gorm:"size:255;not null" json:"title"`
	Type     LessonType   `gorm:"type:enum('video','article');default:'article'" json:"type"`
	Content  string       `gorm:"type:text" json:"content"`
	VideoURL string       `gorm:"size:255" json:"videoUrl"`
	Duration int          `gorm:"default:0" json:"duration"` // 秒
	Order    int          `gorm:"default:0" json:"order"`
	ModuleID uint         `gorm:"index;not null" json:"moduleId"`
	Module   CourseModule `gorm:"foreignKey:ModuleID" json:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}
