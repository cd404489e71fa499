package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User validation errors. All of them wrap ErrValidation.
var (
	ErrEmptyUserID  = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrEmptyName    = fmt.Errorf("%w: user name cannot be empty", ErrValidation)
	ErrInvalidEmail = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyEmail   = fmt.Errorf("%w: email cannot be empty", ErrValidation)
)

// User is a board member that tasks can be assigned to.
// Identity and credentials live outside this service; only the id is trusted.
//
// WipLimit nil means unlimited. AssignedTaskIDs mirrors Task.AssignedUserIDs.
type User struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	WipLimit        *int        `json:"wip_limit,omitempty"`
	AssignedTaskIDs []uuid.UUID `json:"assigned_task_ids"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewUser creates a new User with the given name, email and optional WIP limit.
// Returns an error if validation fails.
func NewUser(name, email string, wipLimit *int) (*User, error) {
	user := &User{
		ID:              uuid.New(),
		Name:            name,
		Email:           strings.TrimSpace(email),
		WipLimit:        wipLimit,
		AssignedTaskIDs: []uuid.UUID{},
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}
	return validateWipLimit(u.WipLimit)
}

// AssignmentCount is the number of tasks currently assigned to the user.
func (u *User) AssignmentCount() int {
	return len(u.AssignedTaskIDs)
}

// HasTask reports whether the task is assigned to the user.
func (u *User) HasTask(taskID uuid.UUID) bool {
	return slices.Contains(u.AssignedTaskIDs, taskID)
}

// AssignTask adds the task to the user side of the assignment.
func (u *User) AssignTask(taskID uuid.UUID) {
	if !u.HasTask(taskID) {
		u.AssignedTaskIDs = append(u.AssignedTaskIDs, taskID)
	}
}

// UnassignTask removes the task from the user side of the assignment.
func (u *User) UnassignTask(taskID uuid.UUID) {
	u.AssignedTaskIDs = slices.DeleteFunc(u.AssignedTaskIDs, func(id uuid.UUID) bool { return id == taskID })
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	cp := *u
	cp.AssignedTaskIDs = slices.Clone(u.AssignedTaskIDs)
	if u.WipLimit != nil {
		l := *u.WipLimit
		cp.WipLimit = &l
	}
	return &cp
}

// validateEmailFormat performs basic validation of email format: a non-empty
// local part, an @, and a domain containing a dot that is neither first nor last.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart := email[at+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && dot < len(domainPart)-1
}
