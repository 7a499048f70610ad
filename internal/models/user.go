package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSupervisor UserRole = "supervisor"
)

func (r UserRole) IsValid() bool {
	return slices.Contains([]UserRole{RoleStudent, RoleAdmin, RoleSupervisor}, r)
}

// CanManage reports whether the role may use the admin endpoints.
func (r UserRole) CanManage() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FirstName string   `json:"first_name" gorm:"size:100"`
	LastName  string   `json:"last_name" gorm:"size:100"`
	Role      UserRole `json:"role" gorm:"default:student;size:20;index"`

	// Progress
	CurrentLevel   *Level                    `json:"current_level" gorm:"size:2"`
	CompletedSteps datatypes.JSONSlice[Step] `json:"completed_steps" gorm:"type:jsonb"`

	// Status
	IsBlocked   bool       `json:"is_blocked" gorm:"default:false"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// HasCompleted reports whether step is in the user's completed steps.
func (u *User) HasCompleted(step Step) bool {
	return slices.Contains(u.CompletedSteps, step)
}

// MarkCompleted adds step to the completed set, keeping it sorted.
func (u *User) MarkCompleted(step Step) {
	if u.HasCompleted(step) {
		return
	}
	u.CompletedSteps = append(u.CompletedSteps, step)
	slices.Sort(u.CompletedSteps)
}

// RaiseLevel sets the current level to lvl if it is higher than the current one.
func (u *User) RaiseLevel(lvl Level) {
	if u.CurrentLevel == nil || lvl.Rank() > u.CurrentLevel.Rank() {
		l := lvl
		u.CurrentLevel = &l
	}
}
