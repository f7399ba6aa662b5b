package repositories_test

import (
	"fmt"
	"testing"
	"time"

	"nutrifit/internal/apperror"
	"nutrifit/internal/database"
	"nutrifit/internal/models"
	"nutrifit/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with foreign keys on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type repoFactory func(t *testing.T) (repositories.UserRepository, repositories.PlanRepository, func(planID uint) int64)

func gormFactory(t *testing.T) (repositories.UserRepository, repositories.PlanRepository, func(uint) int64) {
	db := newTestDB(t)
	countMeals := func(planID uint) int64 {
		var n int64
		require.NoError(t, db.Model(&models.Meal{}).Where("plan_id = ?", planID).Count(&n).Error)
		return n
	}
	return repositories.NewGORMUserRepository(db), repositories.NewGORMPlanRepository(db), countMeals
}

func memoryFactory(t *testing.T) (repositories.UserRepository, repositories.PlanRepository, func(uint) int64) {
	users, plans := repositories.NewMemoryRepositories()
	return users, plans, func(planID uint) int64 { return int64(plans.MealCount(planID)) }
}

func strPtr(s string) *string { return &s }

func samplePlan(userID uint) *models.Plan {
	return &models.Plan{
		Name:      "Plan A",
		StartDate: models.NewDate(2024, time.January, 1),
		EndDate:   models.NewDate(2024, time.January, 31),
		UserID:    userID,
		Meals: []models.Meal{
			{Type: models.MealBreakfast, Time: strPtr("08:00"), Description: "Avena"},
			{Type: models.MealDinner, Description: "Ensalada"},
		},
	}
}

func TestPlanRepositories(t *testing.T) {
	factories := map[string]repoFactory{
		"gorm":   gormFactory,
		"memory": memoryFactory,
	}
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory) })
			t.Run("CreateWithUnknownUser", func(t *testing.T) { testCreateUnknownUser(t, factory) })
			t.Run("ListAndByUser", func(t *testing.T) { testList(t, factory) })
			t.Run("Update", func(t *testing.T) { testUpdate(t, factory) })
			t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
			t.Run("Users", func(t *testing.T) { testUsers(t, factory) })
		})
	}
}

func testCreateAndGet(t *testing.T, factory repoFactory) {
	users, plans, _ := factory(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, users.Create(user))

	plan := samplePlan(user.ID)
	require.NoError(t, plans.Create(plan))
	assert.NotZero(t, plan.ID)
	require.NotNil(t, plan.User)
	assert.Equal(t, user.ID, plan.User.ID)
	require.Len(t, plan.Meals, 2)

	fetched, err := plans.GetByID(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan A", fetched.Name)
	assert.Equal(t, "2024-01-01", fetched.StartDate.String())
	assert.Equal(t, "2024-01-31", fetched.EndDate.String())
	assert.Nil(t, fetched.Description)
	require.Len(t, fetched.Meals, 2)
	assert.Equal(t, models.MealBreakfast, fetched.Meals[0].Type)
	assert.Equal(t, "08:00", *fetched.Meals[0].Time)
	assert.Equal(t, "Avena", fetched.Meals[0].Description)
	assert.Equal(t, models.MealDinner, fetched.Meals[1].Type)
	assert.Nil(t, fetched.Meals[1].Time)
	assert.Equal(t, plan.ID, fetched.Meals[1].PlanID)

	_, err = plans.GetByID(plan.ID + 100)
	assert.True(t, apperror.IsNotFound(err, apperror.ResourcePlan))
}

func testCreateUnknownUser(t *testing.T, factory repoFactory) {
	_, plans, _ := factory(t)

	err := plans.Create(samplePlan(999))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err, apperror.ResourceUser))

	all, err := plans.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testList(t *testing.T, factory repoFactory) {
	users, plans, _ := factory(t)
	ana := &models.User{Name: "Ana", Email: "ana@example.com"}
	luis := &models.User{Name: "Luis", Email: "luis@example.com"}
	require.NoError(t, users.Create(ana))
	require.NoError(t, users.Create(luis))

	require.NoError(t, plans.Create(samplePlan(ana.ID)))
	require.NoError(t, plans.Create(samplePlan(ana.ID)))
	require.NoError(t, plans.Create(samplePlan(luis.ID)))

	all, err := plans.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, p := range all {
		require.NotNil(t, p.User)
		assert.Len(t, p.Meals, 2)
	}

	anaPlans, err := plans.GetByUserID(ana.ID)
	require.NoError(t, err)
	assert.Len(t, anaPlans, 2)

	none, err := plans.GetByUserID(luis.ID + 50)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testUpdate(t *testing.T, factory repoFactory) {
	users, plans, _ := factory(t)
	ana := &models.User{Name: "Ana", Email: "ana@example.com"}
	luis := &models.User{Name: "Luis", Email: "luis@example.com"}
	require.NoError(t, users.Create(ana))
	require.NoError(t, users.Create(luis))
	plan := samplePlan(ana.ID)
	require.NoError(t, plans.Create(plan))

	updated, err := plans.Update(plan.ID, func(p *models.Plan) error {
		p.Name = "Plan B"
		p.Description = strPtr("Más proteína")
		p.UserID = luis.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Plan B", updated.Name)
	assert.Equal(t, "Más proteína", *updated.Description)
	assert.Equal(t, luis.ID, updated.UserID)
	require.NotNil(t, updated.User)
	assert.Equal(t, "Luis", updated.User.Name)
	assert.Len(t, updated.Meals, 2, "meals are untouched")
	assert.Equal(t, "2024-01-01", updated.StartDate.String())

	// A mutator error aborts without writing.
	_, err = plans.Update(plan.ID, func(p *models.Plan) error {
		p.Name = "discarded"
		return apperror.Validation("nope")
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	fetched, err := plans.GetByID(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan B", fetched.Name)

	_, err = plans.Update(plan.ID, func(p *models.Plan) error {
		p.UserID = 999
		return nil
	})
	assert.True(t, apperror.IsNotFound(err, apperror.ResourceUser))

	_, err = plans.Update(plan.ID+100, func(p *models.Plan) error { return nil })
	assert.True(t, apperror.IsNotFound(err, apperror.ResourcePlan))
}

func testDelete(t *testing.T, factory repoFactory) {
	users, plans, countMeals := factory(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, users.Create(user))
	plan := samplePlan(user.ID)
	require.NoError(t, plans.Create(plan))
	require.EqualValues(t, 2, countMeals(plan.ID))

	require.NoError(t, plans.Delete(plan.ID))
	assert.EqualValues(t, 0, countMeals(plan.ID))

	_, err := plans.GetByID(plan.ID)
	assert.True(t, apperror.IsNotFound(err, apperror.ResourcePlan))

	err = plans.Delete(plan.ID)
	assert.True(t, apperror.IsNotFound(err, apperror.ResourcePlan))
}

func testUsers(t *testing.T, factory repoFactory) {
	users, _, _ := factory(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "hash"}
	require.NoError(t, users.Create(user))

	err := users.Create(&models.User{Name: "Otra", Email: "ana@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	ok, err := users.Exists(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = users.Exists(user.ID + 1)
	require.NoError(t, err)
	assert.False(t, ok)

	byEmail, err := users.GetByEmail("ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = users.GetByID(user.ID + 1)
	assert.True(t, apperror.IsNotFound(err, apperror.ResourceUser))
	_, err = users.GetByEmail("nobody@example.com")
	assert.True(t, apperror.IsNotFound(err, apperror.ResourceUser))
}
