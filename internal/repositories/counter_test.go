package repositories

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Setup(db))
	return db
}

func TestNextSerialStartsAt1001(t *testing.T) {
	db := testDB(t)

	serial, err := NextSerial(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), serial)
}

func TestNextSerialStrictlyIncreasing(t *testing.T) {
	db := testDB(t)

	var prev int64 = 1000
	for i := 0; i < 20; i++ {
		serial, err := NextSerial(db)
		require.NoError(t, err)
		assert.Equal(t, prev+1, serial)
		prev = serial
	}
}

func TestSetupIdempotent(t *testing.T) {
	db := testDB(t)

	// Running setup again must not reset the counter
	_, err := NextSerial(db)
	require.NoError(t, err)
	require.NoError(t, Setup(db))

	serial, err := NextSerial(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1002), serial)
}

func TestSeedAdmin(t *testing.T) {
	db := testDB(t)

	require.NoError(t, SeedAdmin(db, "root", "hunter22"))
	// Seeding twice keeps the original principal
	require.NoError(t, SeedAdmin(db, "root", "otherpass"))

	var count int64
	db.Table("admin_users").Count(&count)
	assert.Equal(t, int64(1), count)

	// Blank config skips seeding instead of failing
	require.NoError(t, SeedAdmin(db, "", ""))
}
