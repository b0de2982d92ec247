package gid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/backgrounder/pkg/core"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestGormLocator_Locate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Create(&widget{ID: "w1", Name: "sprocket"}).Error)

	l := NewGormLocator("shop", db)
	l.Register("Widget", &widget{})

	obj, err := l.Locate(ctx, New("shop", "Widget", "w1"))
	require.NoError(t, err)
	require.IsType(t, &widget{}, obj)
	assert.Equal(t, "sprocket", obj.(*widget).Name)
}

func TestGormLocator_MissingRowIsNil(t *testing.T) {
	l := NewGormLocator("shop", newTestDB(t))
	l.Register("Widget", widget{})

	obj, err := l.Locate(context.Background(), New("shop", "Widget", "nope"))
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestGormLocator_UnknownModelOrApp(t *testing.T) {
	l := NewGormLocator("shop", newTestDB(t))
	l.Register("Widget", &widget{})

	_, err := l.Locate(context.Background(), New("shop", "Gadget", "1"))
	assert.ErrorIs(t, err, core.ErrNotLocatable)

	_, err = l.Locate(context.Background(), New("blog", "Widget", "1"))
	assert.ErrorIs(t, err, core.ErrNotLocatable)
}

func TestGormLocator_RegisterRejectsNonStruct(t *testing.T) {
	l := NewGormLocator("shop", nil)
	assert.Panics(t, func() { l.Register("Name", "not a struct") })
	assert.Panics(t, func() { l.Register("Nil", nil) })
}
