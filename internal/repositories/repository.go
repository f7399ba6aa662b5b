package repositories

import (
	"nutrifit/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Exists(id uint) (bool, error)
}

// PlanMutator applies changes to a loaded plan inside the update transaction.
// Returning an error aborts the update.
type PlanMutator func(plan *models.Plan) error

// PlanRepository defines the interface for plan data access. Every plan it
// returns has its User and Meals loaded, meals in insertion order.
type PlanRepository interface {
	GetAll() ([]models.Plan, error)
	GetByID(id uint) (*models.Plan, error)
	GetByUserID(userID uint) ([]models.Plan, error)
	// Create inserts the plan and its meals atomically and reloads it.
	Create(plan *models.Plan) error
	// Update loads the plan, applies mutate and saves scalar fields and the
	// user link. Meals are never touched.
	Update(id uint, mutate PlanMutator) (*models.Plan, error)
	// Delete removes the plan and its meals atomically.
	Delete(id uint) error
}
