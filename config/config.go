package config

import (
	"context"
	"log"
	"os"
	"time"

	"campus-queue-api/models"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Redis is nil unless REDIS_URL is set; callers must treat it as optional
var Redis *redis.Client

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "campus_queue_super_secret_2024"))

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	// busy_timeout matters here: concurrent bookings hit the same tables
	dsn := getEnv("DATABASE_PATH", "campus_queue.db") + "?_pragma=busy_timeout(5000)"
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Appointment{},
		&models.AppointmentStatusHistory{},
		&models.Feedback{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("Database connected and migrated successfully")
}

// InitRedis connects the optional queue cache. Without REDIS_URL the app
// runs fine — every queue read just goes to the database.
func InitRedis() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not set, queue cache disabled")
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	Redis = client
	log.Println("Connected to Redis, queue cache enabled")
}

// Seed creates the default departments and the initial admin account.
// Runs only when SEED=true and is idempotent.
func Seed() {
	if os.Getenv("SEED") != "true" {
		return
	}

	departments := []models.Department{
		{Name: "Admissions", Description: "Enrollment, transfers and admission letters"},
		{Name: "Bursary", Description: "Fees, payments and financial clearance"},
		{Name: "Registrar", Description: "Transcripts, records and certificates"},
		{Name: "Student Affairs", Description: "Accommodation, welfare and clubs"},
	}
	for _, d := range departments {
		DB.Where(models.Department{Name: d.Name}).FirstOrCreate(&d)
	}

	adminEmail := getEnv("ADMIN_EMAIL", "admin@campus.local")
	var existing models.User
	if err := DB.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(getEnv("ADMIN_PASSWORD", "changeme123")), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash admin password:", err)
	}
	admin := models.User{
		Name:         "Queue Admin",
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}
	log.Println("Seeded departments and admin account")
}
