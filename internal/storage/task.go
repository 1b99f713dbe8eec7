package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

type TaskRepo struct {
	db *gorm.DB
}

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{db: db} }

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepo) Get(ctx context.Context, id uint) (models.Task, error) {
	var t models.Task
	err := r.db.WithContext(ctx).First(&t, id).Error
	return t, notFound(err, "Task not found")
}

func (r *TaskRepo) List(ctx context.Context, userID uint, status models.TaskStatus) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	tasks := []models.Task{}
	err := q.Order("id ASC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepo) Save(ctx context.Context, t *models.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TaskRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Task not found")
	}
	return nil
}
