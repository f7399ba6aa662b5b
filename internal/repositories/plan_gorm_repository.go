package repositories

import (
	"errors"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPlanRepository is a GORM implementation of PlanRepository.
type GORMPlanRepository struct {
	db *gorm.DB
}

// NewGORMPlanRepository creates a new instance of GORMPlanRepository.
func NewGORMPlanRepository(db *gorm.DB) *GORMPlanRepository {
	return &GORMPlanRepository{
		db: db,
	}
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Meals", func(db *gorm.DB) *gorm.DB {
		return db.Order("meals.id ASC")
	})
}

// GetAll retrieves all plans from the database.
func (r *GORMPlanRepository) GetAll() ([]models.Plan, error) {
	plans := []models.Plan{}
	if err := withAssociations(r.db).Order("plans.id ASC").Find(&plans).Error; err != nil {
		return nil, apperror.Storage("failed to get all plans", err)
	}
	return plans, nil
}

// GetByID retrieves a single plan by its ID from the database.
func (r *GORMPlanRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := withAssociations(r.db).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.PlanNotFound(id)
		}
		return nil, apperror.Storage("failed to get plan", err)
	}
	return &plan, nil
}

// GetByUserID retrieves every plan owned by a user.
func (r *GORMPlanRepository) GetByUserID(userID uint) ([]models.Plan, error) {
	plans := []models.Plan{}
	err := withAssociations(r.db).
		Where("user_id = ?", userID).
		Order("plans.id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, apperror.Storage("failed to get plans by user", err)
	}
	return plans, nil
}

// Create creates a plan and its meals in one transaction.
func (r *GORMPlanRepository) Create(plan *models.Plan) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(plan).Error; err != nil {
			return err
		}
		return withAssociations(tx).First(plan, plan.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.UserNotFound(plan.UserID)
		}
		return apperror.Storage("failed to create plan", err)
	}
	return nil
}

// Update applies mutate to the stored plan while holding its row lock.
func (r *GORMPlanRepository) Update(id uint, mutate PlanMutator) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&plan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.PlanNotFound(id)
			}
			return err
		}
		if err := mutate(&plan); err != nil {
			return err
		}
		plan.User = nil
		plan.Meals = nil
		if err := tx.Omit(clause.Associations).Save(&plan).Error; err != nil {
			return err
		}
		return withAssociations(tx).First(&plan, id).Error
	})
	if err != nil {
		var appErr *apperror.Error
		switch {
		case errors.As(err, &appErr):
			return nil, err
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, apperror.UserNotFound(plan.UserID)
		default:
			return nil, apperror.Storage("failed to update plan", err)
		}
	}
	return &plan, nil
}

// Delete deletes a plan and its meals in one transaction.
func (r *GORMPlanRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&models.Meal{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Plan{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.PlanNotFound(id)
		}
		return nil
	})
	if err != nil {
		if apperror.IsNotFound(err, apperror.ResourcePlan) {
			return err
		}
		return apperror.Storage("failed to delete plan", err)
	}
	return nil
}
