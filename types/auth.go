package types

import "fmt"

// RegisterUserRequest represents the request payload for creating a staff account
type RegisterUserRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=255"`
	LegalName   string   `json:"legal_name" validate:"required,min=1,max=255"`
	Phone       string   `json:"phone" validate:"required,phone"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	Role        string   `json:"role" validate:"required,oneof=admin scheduler surgeon viewer"`
	Department  string   `json:"department" validate:"omitempty,max=255"`
	Permissions []string `json:"permissions"`
}

func (r RegisterUserRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.LegalName == "" {
		return fmt.Errorf("legalName is required")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	switch r.Role {
	case "admin", "scheduler", "surgeon", "viewer":
	default:
		return fmt.Errorf("role must be one of admin, scheduler, surgeon, viewer")
	}
	return nil
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
