package validation

import (
	"bytes"
	"encoding/json"
	"strings"

	"nutrifit/internal/models"
)

// MealRequest is one meal inside a create-plan payload.
type MealRequest struct {
	Type        string  `json:"tipo" validate:"required,oneof=desayuno almuerzo cena snack"`
	Time        *string `json:"hora" validate:"omitempty,hhmm"`
	Description string  `json:"descripcion" validate:"required"`
}

// CreatePlanRequest is the create-plan payload.
type CreatePlanRequest struct {
	Name        string        `json:"nombre" validate:"required"`
	Description *string       `json:"descripcion"`
	StartDate   string        `json:"fechaInicio" validate:"required,isodate"`
	EndDate     string        `json:"fechaFin" validate:"required,isodate"`
	UserID      *int64        `json:"usuarioId" validate:"required,gt=0"`
	Meals       []MealRequest `json:"comidas" validate:"omitempty,dive"`
}

// UpdatePlanRequest is the partial update payload. A nil field was not supplied.
type UpdatePlanRequest struct {
	Name        *string        `json:"nombre" validate:"omitempty,min=1"`
	Description OptionalString `json:"descripcion" validate:"-"`
	StartDate   *string        `json:"fechaInicio" validate:"omitempty,isodate"`
	EndDate     *string        `json:"fechaFin" validate:"omitempty,isodate"`
	UserID      *int64         `json:"usuarioId" validate:"omitempty,gt=0"`
}

// Empty reports whether no field was supplied.
func (r UpdatePlanRequest) Empty() bool {
	return r.Name == nil && !r.Description.Set && r.StartDate == nil && r.EndDate == nil && r.UserID == nil
}

// MarshalJSON writes only the supplied fields, so clients can send a request
// built in Go without clearing the rest of the plan.
func (r UpdatePlanRequest) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 5)
	if r.Name != nil {
		out["nombre"] = *r.Name
	}
	if r.Description.Set {
		out["descripcion"] = r.Description.Value
	}
	if r.StartDate != nil {
		out["fechaInicio"] = *r.StartDate
	}
	if r.EndDate != nil {
		out["fechaFin"] = *r.EndDate
	}
	if r.UserID != nil {
		out["usuarioId"] = *r.UserID
	}
	return json.Marshal(out)
}

// OptionalString tells an absent field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler. It is also called for null.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Plan builds the plan row described by a validated create request. Meal order
// is preserved and an empty meal time is stored as NULL.
func (r *CreatePlanRequest) Plan() *models.Plan {
	// Dates were checked by the isodate rule.
	start, _ := models.ParseDate(r.StartDate)
	end, _ := models.ParseDate(r.EndDate)

	plan := &models.Plan{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
		UserID:      uint(*r.UserID),
	}
	if len(r.Meals) > 0 {
		plan.Meals = make([]models.Meal, 0, len(r.Meals))
		for _, m := range r.Meals {
			meal := models.Meal{
				Type:        models.MealType(m.Type),
				Description: m.Description,
			}
			if m.Time != nil && *m.Time != "" {
				t := *m.Time
				meal.Time = &t
			}
			plan.Meals = append(plan.Meals, meal)
		}
	}
	return plan
}

// RegisterRequest is the body of a user registration.
type RegisterRequest struct {
	Name     string `json:"nombre" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// User builds the user row for a validated registration. The password is still
// in clear text; AuthService hashes it.
func (r *RegisterRequest) User() *models.User {
	return &models.User{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: r.Password,
	}
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
