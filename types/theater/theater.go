package theater

import "fmt"

// TheaterCreateRequest represents the request payload for registering a theater
type TheaterCreateRequest struct {
	Code      string `json:"code" validate:"required,min=1,max=50"`
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Location  string `json:"location" validate:"omitempty,max=255"`
	Specialty string `json:"specialty" validate:"omitempty,max=255"`
}

func (t TheaterCreateRequest) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("code is required")
	}
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// TheaterUpdateRequest represents the request payload for updating a theater
type TheaterUpdateRequest struct {
	Name      string `json:"name" validate:"omitempty,max=255"`
	Location  string `json:"location" validate:"omitempty,max=255"`
	Specialty string `json:"specialty" validate:"omitempty,max=255"`
	Active    *bool  `json:"active"`
}
