package models

import (
	"time"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type LessonType string

const (
	LessonTheory   LessonType = "theory"
	LessonPractice LessonType = "practice"
	LessonVideo    LessonType = "video"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTheory, LessonPractice, LessonVideo:
		return true
	}
	return false
}

// Course (Курс)
type Course struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title           string      `gorm:"size:255;not null;uniqueIndex:idx_courses_title" json:"title"`
	Description     string      `gorm:"size:500" json:"description"`
	FullDescription string      `gorm:"type:text" json:"full_description"`
	Level           CourseLevel `gorm:"size:50" json:"level"`
	Duration        string      `gorm:"size:50" json:"duration"`
	ImageURL        string      `gorm:"size:512" json:"image_url"`
	CoverImage      string      `gorm:"size:512" json:"cover_image"`
	IsActive        bool        `json:"is_active"`

	Modules []Module `json:"modules" gorm:"constraint:OnDelete:CASCADE;"`
}

// LessonsTotal считает уроки по всем загруженным модулям.
func (c Course) LessonsTotal() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

// Module (Модуль)
type Module struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Title        string   `gorm:"size:255;not null" json:"title"`
	CourseID     uint     `gorm:"index;not null" json:"course_id"`
	Position     int      `json:"position"`
	LessonsCount int      `json:"lessons_count"`
	Lessons      []Lesson `json:"lessons" gorm:"constraint:OnDelete:CASCADE;"`
}

// Lesson (Урок)
type Lesson struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Title    string     `gorm:"size:255;not null" json:"title"`
	Type     LessonType `gorm:"size:20" json:"type"`
	Content  string     `gorm:"type:text" json:"content"`
	ModuleID uint       `gorm:"index;not null" json:"module_id"`
	Position int        `json:"position"`

	ContentBlocks []ContentBlock `json:"content_blocks" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE;"`
}
