package repositories

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/models"
	"github.com/kedarnathdev/protectedData/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase() {
	dsn := config.Envs.DB_URL
	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the create path relies on to retry
	// short-id collisions.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := Setup(db); err != nil {
		log.Fatal("Migration failed:", err)
	}
	DB = db
	log.Println("Successfully connected to database")
}

// Setup runs migrations and seeds the serial counter. Split out from
// ConnectDatabase so tests can run it against their own store.
func Setup(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Drop{},
		&models.AdminUser{},
		&models.Counter{},
	)
	if err != nil {
		return err
	}

	// Seed the serial counter so the first issued value is 1001.
	seed := models.Counter{Name: models.DropSerialCounter, Value: models.DropSerialSeed}
	return db.Where(models.Counter{Name: models.DropSerialCounter}).
		Attrs(seed).
		FirstOrCreate(&models.Counter{}).Error
}

// SeedAdmin creates the admin principal from config if it does not exist
// yet. Admins are never created through the public surface.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		log.Println("ADMIN_USER/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.AdminUser
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded admin user", username)
	return nil
}
