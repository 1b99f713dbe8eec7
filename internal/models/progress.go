package models

import "time"

// UserProgress - прогресс пользователя по курсу.
// Множества пройденных уроков и практик лежат в отдельных таблицах
// с уникальными индексами, так что повторная вставка ничего не меняет.
type UserProgress struct {
	ID                   uint      `gorm:"primarykey" json:"-"`
	UserID               uint      `gorm:"uniqueIndex:idx_user_progress_user_course;not null" json:"-"`
	CourseID             uint      `gorm:"uniqueIndex:idx_user_progress_user_course;not null" json:"-"`
	Progress             float64   `json:"progress"`
	LastAccessedLessonID *uint     `json:"last_accessed_lesson"`
	CreatedAt            time.Time `json:"-"`
	UpdatedAt            time.Time `json:"-"`
}

func (UserProgress) TableName() string { return "user_progress" }

type CompletedLesson struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"uniqueIndex:idx_completed_lessons_key;not null"`
	CourseID  uint `gorm:"uniqueIndex:idx_completed_lessons_key;not null"`
	LessonID  uint `gorm:"uniqueIndex:idx_completed_lessons_key;not null"`
	CreatedAt time.Time
}

type CompletedPractice struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"uniqueIndex:idx_completed_practices_key;not null"`
	CourseID  uint `gorm:"uniqueIndex:idx_completed_practices_key;not null"`
	BlockID   uint `gorm:"uniqueIndex:idx_completed_practices_key;not null"`
	CreatedAt time.Time
}
