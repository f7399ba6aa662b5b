package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"
)

// memoryStore is the shared state behind the in-memory repositories. Plans keep
// their meals inline, so deleting a plan drops its meals with it.
type memoryStore struct {
	mu         sync.RWMutex
	users      map[uint]models.User
	plans      map[uint]models.Plan
	nextUserID uint
	nextPlanID uint
	nextMealID uint
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	store *memoryStore
}

// MemoryPlanRepository is an in-memory implementation of PlanRepository. It
// enforces the user foreign key like the SQL schema does.
type MemoryPlanRepository struct {
	store *memoryStore
}

// NewMemoryRepositories creates a user and a plan repository backed by the same
// in-memory store.
func NewMemoryRepositories() (*MemoryUserRepository, *MemoryPlanRepository) {
	s := &memoryStore{
		users: make(map[uint]models.User),
		plans: make(map[uint]models.Plan),
	}
	return &MemoryUserRepository{store: s}, &MemoryPlanRepository{store: s}
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperror.Conflict(fmt.Sprintf("El email '%s' ya está registrado.", user.Email))
		}
	}
	s.nextUserID++
	now := time.Now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(id uint) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, apperror.UserNotFound(id)
	}
	return &user, nil
}

// GetByEmail returns a user by its email.
func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, apperror.NotFound(apperror.ResourceUser, fmt.Sprintf("Usuario con email %s no encontrado.", email))
}

// Exists reports whether a user with the given ID is stored.
func (r *MemoryUserRepository) Exists(id uint) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.users[id]
	return ok, nil
}

// GetAll returns all plans ordered by ID.
func (r *MemoryPlanRepository) GetAll() ([]models.Plan, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPlans(func(models.Plan) bool { return true }), nil
}

// GetByID returns a plan by its ID.
func (r *MemoryPlanRepository) GetByID(id uint) (*models.Plan, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, apperror.PlanNotFound(id)
	}
	joined := s.joined(plan)
	return &joined, nil
}

// GetByUserID returns the plans of a user ordered by ID.
func (r *MemoryPlanRepository) GetByUserID(userID uint) ([]models.Plan, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPlans(func(p models.Plan) bool { return p.UserID == userID }), nil
}

// Create adds a plan with its meals.
func (r *MemoryPlanRepository) Create(plan *models.Plan) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[plan.UserID]; !ok {
		return apperror.UserNotFound(plan.UserID)
	}

	now := time.Now()
	stored := clonePlan(*plan)
	stored.User = nil
	s.nextPlanID++
	stored.ID = s.nextPlanID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	for i := range stored.Meals {
		s.nextMealID++
		stored.Meals[i].ID = s.nextMealID
		stored.Meals[i].PlanID = stored.ID
		stored.Meals[i].CreatedAt = now
		stored.Meals[i].UpdatedAt = now
	}
	s.plans[stored.ID] = stored
	*plan = s.joined(stored)
	return nil
}

// Update modifies an existing plan. Meals are kept as stored.
func (r *MemoryPlanRepository) Update(id uint, mutate PlanMutator) (*models.Plan, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.plans[id]
	if !ok {
		return nil, apperror.PlanNotFound(id)
	}
	working := clonePlan(stored)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if _, ok := s.users[working.UserID]; !ok {
		return nil, apperror.UserNotFound(working.UserID)
	}

	working.ID = stored.ID
	working.User = nil
	working.Meals = stored.Meals
	working.CreatedAt = stored.CreatedAt
	working.UpdatedAt = time.Now()
	s.plans[id] = working

	joined := s.joined(working)
	return &joined, nil
}

// Delete removes a plan and its meals.
func (r *MemoryPlanRepository) Delete(id uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return apperror.PlanNotFound(id)
	}
	delete(s.plans, id)
	return nil
}

// MealCount returns the number of stored meals that belong to planID.
func (r *MemoryPlanRepository) MealCount(planID uint) int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.store.plans[planID].Meals)
}

// sortedPlans must be called with the lock held.
func (s *memoryStore) sortedPlans(keep func(models.Plan) bool) []models.Plan {
	plans := make([]models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if keep(p) {
			plans = append(plans, s.joined(p))
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans
}

// joined returns a deep copy of p with its user attached. Must be called with
// the lock held.
func (s *memoryStore) joined(p models.Plan) models.Plan {
	out := clonePlan(p)
	if u, ok := s.users[p.UserID]; ok {
		out.User = &u
	}
	if out.Meals == nil {
		out.Meals = []models.Meal{}
	}
	return out
}

func clonePlan(p models.Plan) models.Plan {
	out := p
	if p.Description != nil {
		d := *p.Description
		out.Description = &d
	}
	if p.User != nil {
		u := *p.User
		out.User = &u
	}
	if p.Meals != nil {
		out.Meals = make([]models.Meal, len(p.Meals))
		for i, m := range p.Meals {
			out.Meals[i] = m
			if m.Time != nil {
				t := *m.Time
				out.Meals[i].Time = &t
			}
		}
	}
	return out
}
