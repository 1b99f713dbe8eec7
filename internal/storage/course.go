package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

type CourseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) *CourseRepo { return &CourseRepo{db: db} }

func orderModules(db *gorm.DB) *gorm.DB {
	return db.Order("modules.position ASC, modules.id ASC")
}

func orderLessons(db *gorm.DB) *gorm.DB {
	return db.Order("lessons.position ASC, lessons.id ASC")
}

func orderBlocks(db *gorm.DB) *gorm.DB {
	return db.Order("content_blocks.position ASC, content_blocks.id ASC")
}

func withTree(db *gorm.DB) *gorm.DB {
	return db.Preload("Modules", orderModules).Preload("Modules.Lessons", orderLessons)
}

func courseConflict(err error) error {
	if IsUniqueViolation(err) {
		return &apperr.Error{Kind: apperr.Conflict, Message: "A course with this title already exists", Err: err}
	}
	return err
}

// List возвращает курсы с модулями и уроками.
func (r *CourseRepo) List(ctx context.Context, activeOnly bool) ([]models.Course, error) {
	var courses []models.Course
	q := withTree(r.db.WithContext(ctx))
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("id ASC").Find(&courses).Error
	return courses, err
}

// Page - плоский список курсов без дерева, для админки.
func (r *CourseRepo) Page(ctx context.Context, limit, offset int) ([]models.Course, int64, error) {
	var (
		courses []models.Course
		total   int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Course{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepo) Get(ctx context.Context, id uint) (models.Course, error) {
	var c models.Course
	err := withTree(r.db.WithContext(ctx)).First(&c, id).Error
	return c, notFound(err, "Course not found")
}

// GetContent грузит дерево курса вместе с блоками контента.
func (r *CourseRepo) GetContent(ctx context.Context, id uint) (models.Course, error) {
	var c models.Course
	err := withTree(r.db.WithContext(ctx)).
		Preload("Modules.Lessons.ContentBlocks", orderBlocks).
		First(&c, id).Error
	return c, notFound(err, "Course not found")
}

// IsActive читает только флаг курса; NotFound, если курса нет.
func (r *CourseRepo) IsActive(ctx context.Context, id uint) (bool, error) {
	var c models.Course
	res := r.db.WithContext(ctx).Select("id", "is_active").Limit(1).Find(&c, id)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, apperr.NotFoundf("Course not found")
	}
	return c.IsActive, nil
}

func (r *CourseRepo) TitleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("title = ? AND id <> ?", title, exceptID).
		Count(&n).Error
	return n > 0, err
}

// Create сохраняет курс вместе с вложенными модулями и уроками.
func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
	return courseConflict(err)
}

func (r *CourseRepo) Update(ctx context.Context, id uint, updates map[string]any) (models.Course, error) {
	res := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Course{}, courseConflict(res.Error)
	}
	return r.Get(ctx, id)
}

// Delete удаляет курс и всё, что на него ссылается.
func (r *CourseRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id").First(&course, id).Error; err != nil {
			return notFound(err, "Course not found")
		}

		var moduleIDs []uint
		if err := tx.Model(&models.Module{}).Where("course_id = ?", id).Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}
		if err := deleteModules(tx, moduleIDs); err != nil {
			return err
		}

		// прогресс и записи на курс
		if err := tx.Where("course_id = ?", id).Delete(&models.CompletedLesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.CompletedPractice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.UserProgress{}).Error; err != nil {
			return err
		}
		enrolled := tx.Model(&models.UserCourse{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("user_course_id IN (?)", enrolled).Delete(&models.Certificate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.UserCourse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Course{}, id).Error
	})
}

func (r *CourseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&n).Error
	return n, err
}

// CountLessons - общее число уроков курса.
func CountLessons(db *gorm.DB, courseID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

// =======================
// MODULES
// =======================

func (r *CourseRepo) GetModule(ctx context.Context, id uint) (models.Module, error) {
	var m models.Module
	err := r.db.WithContext(ctx).Preload("Lessons", orderLessons).First(&m, id).Error
	return m, notFound(err, "Module not found")
}

func (r *CourseRepo) CreateModule(ctx context.Context, m *models.Module) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Course{}, m.CourseID).Error; err != nil {
			return notFound(err, "Course not found")
		}
		m.LessonsCount = len(m.Lessons)
		return tx.Create(m).Error
	})
}

func (r *CourseRepo) UpdateModule(ctx context.Context, id uint, updates map[string]any) (models.Module, error) {
	res := r.db.WithContext(ctx).Model(&models.Module{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Module{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetModule(ctx, id); err != nil {
			return models.Module{}, err
		}
	}
	return r.GetModule(ctx, id)
}

func (r *CourseRepo) DeleteModule(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Module{}, id).Error; err != nil {
			return notFound(err, "Module not found")
		}
		return deleteModules(tx, []uint{id})
	})
}

func deleteModules(tx *gorm.DB, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	var lessonIDs []uint
	if err := tx.Model(&models.Lesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
		return err
	}
	if err := deleteLessons(tx, lessonIDs); err != nil {
		return err
	}
	return tx.Where("id IN ?", moduleIDs).Delete(&models.Module{}).Error
}
