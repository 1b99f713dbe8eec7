package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

type LessonInput struct {
	Title    string            `json:"title" validate:"required,max=255"`
	Type     models.LessonType `json:"type" validate:"required"`
	Content  string            `json:"content" validate:"required"`
	Position *int              `json:"position" validate:"omitempty,min=0"`
}

type ModuleInput struct {
	Title    string        `json:"title" validate:"required,max=255"`
	Position *int          `json:"position" validate:"omitempty,min=0"`
	Lessons  []LessonInput `json:"lessons" validate:"dive"`
}

type CourseInput struct {
	Title           string             `json:"title" validate:"required,max=255"`
	Description     string             `json:"description" validate:"required,max=500"`
	FullDescription string             `json:"full_description" validate:"required"`
	Level           models.CourseLevel `json:"level" validate:"required"`
	Duration        string             `json:"duration" validate:"required,max=50"`
	ImageURL        string             `json:"image_url" validate:"max=512"`
	CoverImage      string             `json:"cover_image" validate:"max=500"`
	IsActive        *bool              `json:"is_active"`
	Modules         []ModuleInput      `json:"modules" validate:"dive"`
}

type CourseUpdate struct {
	Title           *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string             `json:"description" validate:"omitempty,min=1,max=500"`
	FullDescription *string             `json:"full_description"`
	Level           *models.CourseLevel `json:"level"`
	Duration        *string             `json:"duration" validate:"omitempty,max=50"`
	ImageURL        *string             `json:"image_url" validate:"omitempty,max=512"`
	CoverImage      *string             `json:"cover_image" validate:"omitempty,max=500"`
	IsActive        *bool               `json:"is_active"`
}

type ModuleUpdate struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=255"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

type LessonUpdate struct {
	Title    *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Type     *models.LessonType `json:"type"`
	Content  *string            `json:"content"`
	Position *int               `json:"position" validate:"omitempty,min=0"`
}

type ContentInput struct {
	Blocks     []storage.BlockInput `json:"blocks"`
	ForceReset bool                 `json:"force_reset"`
}

type CourseService struct {
	courses *storage.CourseRepo
	cache   *enrollmentCache
	log     *zap.Logger
}

func NewCourseService(courses *storage.CourseRepo, ec *enrollmentCache, log *zap.Logger) *CourseService {
	return &CourseService{courses: courses, cache: ec, log: log.Named("courses")}
}

const msgImageURL = "Image URL must start with http:// or https://"

func (s *CourseService) List(ctx context.Context, includeInactive bool) ([]models.Course, error) {
	return s.courses.List(ctx, !includeInactive)
}

// Get: неактивный курс виден только админу.
func (s *CourseService) Get(ctx context.Context, actor Actor, id uint) (models.Course, error) {
	c, err := s.courses.Get(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	if !c.IsActive && !actor.IsAdmin {
		return models.Course{}, apperr.NotFoundf("Course not found")
	}
	return c, nil
}

func validateLesson(fields map[string]string, path string, t models.LessonType) {
	if !t.Valid() {
		fields[path+".type"] = "must be one of theory, practice, video"
	}
}

// Create создаёт курс вместе с модулями и уроками.
func (s *CourseService) Create(ctx context.Context, in CourseInput) (models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)

	// 1. Проверка полей
	fields := map[string]string{}
	if !in.Level.Valid() {
		fields["level"] = "must be one of beginner, intermediate, advanced"
	}
	if !isHTTPURL(in.ImageURL) {
		fields["image_url"] = msgImageURL
	}
	if !isHTTPURL(in.CoverImage) {
		fields["cover_image"] = msgImageURL
	}
	for i, m := range in.Modules {
		for j, l := range m.Lessons {
			validateLesson(fields, fmt.Sprintf("modules[%d].lessons[%d]", i, j), l.Type)
		}
	}
	if len(fields) > 0 {
		msg := "Invalid course data"
		if len(fields) == 1 && (fields["image_url"] != "" || fields["cover_image"] != "") {
			msg = msgImageURL
		}
		return models.Course{}, apperr.ValidationFields(msg, fields)
	}

	// 2. Уникальность названия
	taken, err := s.courses.TitleTaken(ctx, in.Title, 0)
	if err != nil {
		return models.Course{}, err
	}
	if taken {
		return models.Course{}, apperr.Conflictf("A course with this title already exists")
	}

	// 3. Сборка дерева
	c := models.Course{
		Title:           in.Title,
		Description:     in.Description,
		FullDescription: in.FullDescription,
		Level:           in.Level,
		Duration:        in.Duration,
		ImageURL:        in.ImageURL,
		CoverImage:      in.CoverImage,
		IsActive:        in.IsActive == nil || *in.IsActive,
	}
	for i, m := range in.Modules {
		mod := models.Module{Title: m.Title, Position: posOr(m.Position, i), LessonsCount: len(m.Lessons)}
		for j, l := range m.Lessons {
			mod.Lessons = append(mod.Lessons, models.Lesson{
				Title:    l.Title,
				Type:     l.Type,
				Content:  l.Content,
				Position: posOr(l.Position, j),
			})
		}
		c.Modules = append(c.Modules, mod)
	}
	if err := s.courses.Create(ctx, &c); err != nil {
		return models.Course{}, err
	}
	s.log.Info("course created", zap.Uint("course_id", c.ID), zap.Int("modules", len(c.Modules)), zap.Int("lessons", c.LessonsTotal()))
	return s.courses.Get(ctx, c.ID)
}

func posOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func (s *CourseService) Update(ctx context.Context, id uint, in CourseUpdate) (models.Course, error) {
	if _, err := s.courses.Get(ctx, id); err != nil {
		return models.Course{}, err
	}

	updates := map[string]any{}
	fields := map[string]string{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		taken, err := s.courses.TitleTaken(ctx, title, id)
		if err != nil {
			return models.Course{}, err
		}
		if taken {
			return models.Course{}, apperr.Conflictf("A course with this title already exists")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.FullDescription != nil {
		updates["full_description"] = *in.FullDescription
	}
	if in.Level != nil {
		if !in.Level.Valid() {
			fields["level"] = "must be one of beginner, intermediate, advanced"
		}
		updates["level"] = *in.Level
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
	}
	if in.ImageURL != nil {
		if !isHTTPURL(*in.ImageURL) {
			fields["image_url"] = msgImageURL
		}
		updates["image_url"] = *in.ImageURL
	}
	if in.CoverImage != nil {
		if !isHTTPURL(*in.CoverImage) {
			fields["cover_image"] = msgImageURL
		}
		updates["cover_image"] = *in.CoverImage
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(fields) > 0 {
		return models.Course{}, apperr.ValidationFields("Invalid course data", fields)
	}
	if len(updates) == 0 {
		return s.courses.Get(ctx, id)
	}

	c, err := s.courses.Update(ctx, id, updates)
	if err != nil {
		return models.Course{}, err
	}
	s.cache.invalidateAll(ctx)
	return c, nil
}

func (s *CourseService) Delete(ctx context.Context, id uint) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.invalidateAll(ctx)
	s.log.Info("course deleted", zap.Uint("course_id", id))
	return nil
}

// =======================
// MODULES / LESSONS
// =======================

func (s *CourseService) CreateModule(ctx context.Context, courseID uint, in ModuleInput) (models.Module, error) {
	fields := map[string]string{}
	for j, l := range in.Lessons {
		validateLesson(fields, fmt.Sprintf("lessons[%d]", j), l.Type)
	}
	if len(fields) > 0 {
		return models.Module{}, apperr.ValidationFields("Invalid module data", fields)
	}

	m := models.Module{CourseID: courseID, Title: in.Title}
	if in.Position != nil {
		m.Position = *in.Position
	} else {
		c, err := s.courses.Get(ctx, courseID)
		if err != nil {
			return models.Module{}, err
		}
		m.Position = len(c.Modules)
	}
	for j, l := range in.Lessons {
		m.Lessons = append(m.Lessons, models.Lesson{
			Title: l.Title, Type: l.Type, Content: l.Content, Position: posOr(l.Position, j),
		})
	}
	if err := s.courses.CreateModule(ctx, &m); err != nil {
		return models.Module{}, err
	}
	return s.courses.GetModule(ctx, m.ID)
}

func (s *CourseService) UpdateModule(ctx context.Context, id uint, in ModuleUpdate) (models.Module, error) {
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if len(updates) == 0 {
		return s.courses.GetModule(ctx, id)
	}
	return s.courses.UpdateModule(ctx, id, updates)
}

func (s *CourseService) DeleteModule(ctx context.Context, id uint) error {
	return s.courses.DeleteModule(ctx, id)
}

func (s *CourseService) CreateLesson(ctx context.Context, moduleID uint, in LessonInput) (models.Lesson, error) {
	fields := map[string]string{}
	validateLesson(fields, "lesson", in.Type)
	if len(fields) > 0 {
		return models.Lesson{}, apperr.ValidationFields("Invalid lesson data", fields)
	}
	l := models.Lesson{ModuleID: moduleID, Title: in.Title, Type: in.Type, Content: in.Content}
	if in.Position != nil {
		l.Position = *in.Position
	}
	if err := s.courses.CreateLesson(ctx, &l); err != nil {
		return models.Lesson{}, err
	}
	return s.courses.GetLesson(ctx, l.ID)
}

func (s *CourseService) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	return s.courses.GetLesson(ctx, id)
}

func (s *CourseService) UpdateLesson(ctx context.Context, id uint, in LessonUpdate) (models.Lesson, error) {
	if _, err := s.courses.GetLesson(ctx, id); err != nil {
		return models.Lesson{}, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return models.Lesson{}, apperr.ValidationFields("Invalid lesson data",
				map[string]string{"type": "must be one of theory, practice, video"})
		}
		updates["type"] = *in.Type
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if len(updates) == 0 {
		return s.courses.GetLesson(ctx, id)
	}
	return s.courses.UpdateLesson(ctx, id, updates)
}

func (s *CourseService) DeleteLesson(ctx context.Context, id uint) error {
	return s.courses.DeleteLesson(ctx, id)
}

// ReplaceContent проверяет каждый блок и заменяет контент урока целиком.
func (s *CourseService) ReplaceContent(ctx context.Context, lessonID uint, in ContentInput) (models.Lesson, error) {
	fields := map[string]string{}
	blocks := make([]storage.BlockInput, 0, len(in.Blocks))
	for i, b := range in.Blocks {
		p, err := models.DecodeBlock(b.Type, b.Data)
		if err != nil {
			fields[fmt.Sprintf("blocks[%d]", i)] = err.Error()
			continue
		}
		raw, err := json.Marshal(p)
		if err != nil {
			return models.Lesson{}, err
		}
		blocks = append(blocks, storage.BlockInput{ID: b.ID, Type: b.Type, Data: raw})
	}
	if len(fields) > 0 {
		return models.Lesson{}, apperr.ValidationFields("Invalid content blocks", fields)
	}

	if err := s.courses.ReplaceBlocks(ctx, lessonID, blocks, in.ForceReset); err != nil {
		return models.Lesson{}, err
	}
	s.log.Info("lesson content replaced",
		zap.Uint("lesson_id", lessonID), zap.Int("blocks", len(blocks)), zap.Bool("force_reset", in.ForceReset))
	return s.courses.GetLesson(ctx, lessonID)
}
