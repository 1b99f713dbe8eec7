package services

import (
	"context"
	"strings"
	"time"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

type TaskInput struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
}

type TaskUpdate struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
	DueDate     *time.Time         `json:"due_date"`
}

type TaskService struct {
	tasks *storage.TaskRepo
}

func NewTaskService(tasks *storage.TaskRepo) *TaskService {
	return &TaskService{tasks: tasks}
}

func badTaskStatus() error {
	return apperr.ValidationFields("Invalid task data",
		map[string]string{"status": "must be one of todo, in_progress, completed, cancelled"})
}

func (s *TaskService) Create(ctx context.Context, actor Actor, in TaskInput) (models.Task, error) {
	if in.Status == "" {
		in.Status = models.TaskTodo
	}
	if !in.Status.Valid() {
		return models.Task{}, badTaskStatus()
	}
	t := models.Task{
		UserID:      actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
	}
	if err := s.tasks.Create(ctx, &t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, actor Actor, status models.TaskStatus) ([]models.Task, error) {
	if status != "" && !status.Valid() {
		return nil, badTaskStatus()
	}
	return s.tasks.List(ctx, actor.UserID, status)
}

func (s *TaskService) Get(ctx context.Context, actor Actor, id uint) (models.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !actor.owns(t.UserID) {
		return models.Task{}, apperr.Forbiddenf("Not allowed to access this task")
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, actor Actor, id uint, in TaskUpdate) (models.Task, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return models.Task{}, err
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return models.Task{}, badTaskStatus()
		}
		t.Status = *in.Status
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if err := s.tasks.Save(ctx, &t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}
