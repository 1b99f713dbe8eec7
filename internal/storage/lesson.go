package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

// BlockInput - блок урока в запросе на замену контента. ID = 0 означает новый блок.
type BlockInput struct {
	ID   uint             `json:"id"`
	Type models.BlockType `json:"type"`
	Data datatypes.JSON   `json:"data"`
}

func (r *CourseRepo) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var l models.Lesson
	err := r.db.WithContext(ctx).Preload("ContentBlocks", orderBlocks).First(&l, id).Error
	return l, notFound(err, "Lesson not found")
}

// LessonInCourse находит урок только если он принадлежит курсу.
func (r *CourseRepo) LessonInCourse(ctx context.Context, courseID, lessonID uint) (models.Lesson, error) {
	var l models.Lesson
	err := r.db.WithContext(ctx).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.id = ? AND modules.course_id = ?", lessonID, courseID).
		First(&l).Error
	return l, notFound(err, "Lesson not found")
}

// PracticeBlock ищет практический блок внутри урока.
func (r *CourseRepo) PracticeBlock(ctx context.Context, lessonID, blockID uint) (models.ContentBlock, error) {
	var b models.ContentBlock
	err := r.db.WithContext(ctx).
		Where("id = ? AND lesson_id = ? AND type = ?", blockID, lessonID, models.BlockPractice).
		First(&b).Error
	return b, notFound(err, "Practice not found")
}

func (r *CourseRepo) CreateLesson(ctx context.Context, l *models.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Module{}, l.ModuleID).Error; err != nil {
			return notFound(err, "Module not found")
		}
		if l.Position == 0 {
			var n int64
			if err := tx.Model(&models.Lesson{}).Where("module_id = ?", l.ModuleID).Count(&n).Error; err != nil {
				return err
			}
			l.Position = int(n)
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return refreshLessonsCount(tx, l.ModuleID)
	})
}

func (r *CourseRepo) UpdateLesson(ctx context.Context, id uint, updates map[string]any) (models.Lesson, error) {
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return models.Lesson{}, err
	}
	return r.GetLesson(ctx, id)
}

func (r *CourseRepo) DeleteLesson(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l models.Lesson
		if err := tx.Select("id", "module_id").First(&l, id).Error; err != nil {
			return notFound(err, "Lesson not found")
		}
		if err := deleteLessons(tx, []uint{id}); err != nil {
			return err
		}
		return refreshLessonsCount(tx, l.ModuleID)
	})
}

func refreshLessonsCount(tx *gorm.DB, moduleID uint) error {
	var n int64
	if err := tx.Model(&models.Lesson{}).Where("module_id = ?", moduleID).Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.Module{}).Where("id = ?", moduleID).Update("lessons_count", n).Error
}

func deleteLessons(tx *gorm.DB, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	var blockIDs []uint
	if err := tx.Model(&models.ContentBlock{}).Where("lesson_id IN ?", lessonIDs).Pluck("id", &blockIDs).Error; err != nil {
		return err
	}
	if err := deleteBlocks(tx, blockIDs); err != nil {
		return err
	}
	if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.CompletedLesson{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.UserProgress{}).
		Where("last_accessed_lesson_id IN ?", lessonIDs).
		Update("last_accessed_lesson_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", lessonIDs).Delete(&models.Lesson{}).Error
}

func deleteBlocks(tx *gorm.DB, blockIDs []uint) error {
	if len(blockIDs) == 0 {
		return nil
	}
	if err := tx.Where("block_id IN ?", blockIDs).Delete(&models.UserPracticeAttempt{}).Error; err != nil {
		return err
	}
	if err := tx.Where("block_id IN ?", blockIDs).Delete(&models.CompletedPractice{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", blockIDs).Delete(&models.ContentBlock{}).Error
}

// ReplaceBlocks заменяет контент урока в одной транзакции.
// Изменение или удаление практики, на которую уже отвечали,
// запрещено без forceReset (ответы тогда удаляются).
func (r *CourseRepo) ReplaceBlocks(ctx context.Context, lessonID uint, blocks []BlockInput, forceReset bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Lesson{}, lessonID).Error; err != nil {
			return notFound(err, "Lesson not found")
		}

		var existingBlocks []models.ContentBlock
		if err := tx.Where("lesson_id = ?", lessonID).Find(&existingBlocks).Error; err != nil {
			return err
		}
		existing := make(map[uint]models.ContentBlock, len(existingBlocks))
		for _, b := range existingBlocks {
			existing[b.ID] = b
		}

		incoming := make(map[uint]bool)
		for _, b := range blocks {
			if b.ID == 0 {
				continue
			}
			if _, ok := existing[b.ID]; !ok {
				return apperr.Validationf("Block %d does not belong to lesson %d", b.ID, lessonID)
			}
			incoming[b.ID] = true
		}

		// 1. Что удаляем и что меняем
		var removed, changed []uint
		for id := range existing {
			if !incoming[id] {
				removed = append(removed, id)
			}
		}
		for _, b := range blocks {
			if old, ok := existing[b.ID]; ok && (old.Type != b.Type || !areJSONsEqual(old.Data, b.Data)) {
				changed = append(changed, b.ID)
			}
		}

		// 2. Проверяем ответы
		touched := append(append([]uint{}, removed...), changed...)
		if len(touched) > 0 {
			if forceReset {
				if err := tx.Where("block_id IN ?", touched).Delete(&models.UserPracticeAttempt{}).Error; err != nil {
					return err
				}
				if err := tx.Where("block_id IN ?", touched).Delete(&models.CompletedPractice{}).Error; err != nil {
					return err
				}
			} else {
				var answered int64
				if err := tx.Model(&models.UserPracticeAttempt{}).Where("block_id IN ?", touched).Count(&answered).Error; err != nil {
					return err
				}
				if answered > 0 {
					return apperr.Conflictf("Block already has answers").WithCode("BLOCK_HAS_ANSWERS")
				}
			}
		}

		// 3. Удаляем, обновляем, создаём
		if err := deleteBlocks(tx, removed); err != nil {
			return err
		}
		for i, b := range blocks {
			if b.ID > 0 {
				if err := tx.Model(&models.ContentBlock{}).Where("id = ?", b.ID).Updates(map[string]any{
					"type":     b.Type,
					"data":     b.Data,
					"position": i,
				}).Error; err != nil {
					return err
				}
				continue
			}
			nb := models.ContentBlock{LessonID: lessonID, Type: b.Type, Position: i, Data: b.Data}
			if err := tx.Create(&nb).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CourseRepo) CountAttempts(ctx context.Context, blockID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserPracticeAttempt{}).Where("block_id = ?", blockID).Count(&n).Error
	return n, err
}

func areJSONsEqual(a, b []byte) bool {
	var objA, objB any

	if len(a) == 0 && len(b) == 0 {
		return true
	}
	if err := json.Unmarshal(a, &objA); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &objB); err != nil {
		return bytes.Equal(a, b)
	}
	return reflect.DeepEqual(objA, objB)
}
