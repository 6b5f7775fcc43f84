package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusToDo       Status = "To-Do"
	StatusInProgress Status = "In-Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	TitleMaxLen       = 120
	DescriptionMaxLen = 1000
)

var (
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = fmt.Errorf("title must be at most %d characters", TitleMaxLen)
	ErrDescriptionTooLong = fmt.Errorf("description must be at most %d characters", DescriptionMaxLen)
	ErrUnknownStatus      = errors.New("status must be one of To-Do, In-Progress, Completed")
	ErrUnknownPriority    = errors.New("priority must be one of Low, Medium, High")
)

// Task is the domain entity. It does not depend on Gin, Postgres, Mongo or Redis.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatorID   string
	Assignees   []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCreator reports whether userID created the task.
func (t Task) IsCreator(userID string) bool {
	return t.CreatorID == userID
}

// IsAssignee reports whether userID is in the assignee set.
func (t Task) IsAssignee(userID string) bool {
	for _, a := range t.Assignees {
		if a == userID {
			return true
		}
	}
	return false
}

// Overdue reports whether the task has a due date before now and is not completed.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// NormalizeTitle trims the title and checks its length.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// NormalizeDescription trims the description and checks its length.
func NormalizeDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) > DescriptionMaxLen {
		return "", ErrDescriptionTooLong
	}
	return desc, nil
}
