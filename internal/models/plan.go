package models

import "time"

// MealType enumerates the eating occasions a meal can be.
type MealType string

const (
	MealBreakfast MealType = "desayuno"
	MealLunch     MealType = "almuerzo"
	MealDinner    MealType = "cena"
	MealSnack     MealType = "snack"
)

// MealTypes lists the accepted meal types in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid reports whether t is one of MealTypes.
func (t MealType) Valid() bool {
	for _, mt := range MealTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Plan is a named nutrition plan with a date range, owned by one user.
// A plan exclusively owns its meals.
type Plan struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"nombre" gorm:"type:varchar(255);not null"`
	Description *string   `json:"descripcion"`
	StartDate   Date      `json:"fechaInicio" gorm:"not null"`
	EndDate     Date      `json:"fechaFin" gorm:"not null"`
	UserID      uint      `json:"usuarioId" gorm:"not null;index"`
	User        *User     `json:"usuario,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Meals       []Meal    `json:"comidas" gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Meal is a single eating occasion inside a plan.
type Meal struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        MealType  `json:"tipo" gorm:"type:varchar(20);not null"`
	Time        *string   `json:"hora" gorm:"type:varchar(5)"` // "HH:MM" or NULL
	Description string    `json:"descripcion" gorm:"type:text;not null"`
	PlanID      uint      `json:"planId" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
