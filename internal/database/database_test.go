package database

import (
	"fmt"
	"testing"

	"nutrifit/internal/config"
	"nutrifit/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "nutrifit.db?_foreign_keys=on", withForeignKeys("nutrifit.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", withForeignKeys("file:x?mode=memory"))
	assert.Equal(t, "file:x?_fk=1", withForeignKeys("file:x?_fk=1"))
}

func TestOpen(t *testing.T) {
	_, err := Open(config.DriverMemory, "")
	assert.Error(t, err)

	db, err := Open(config.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Ping(db))
	for _, table := range []interface{}{&models.User{}, &models.Plan{}, &models.Meal{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	// Foreign keys are enforced, so a plan cannot point at a missing user.
	err = db.Create(&models.Plan{
		Name:      "Huérfano",
		StartDate: models.NewDate(2024, 1, 1),
		EndDate:   models.NewDate(2024, 1, 2),
		UserID:    42,
	}).Error
	assert.Error(t, err)
}
