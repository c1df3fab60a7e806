package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kmuchira/tiketi/internal/models"
	"github.com/kmuchira/tiketi/internal/notifications"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	RabbitMQURL string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.User{}, &models.Event{}, &models.Ticket{}, &models.Booking{}, &models.Payment{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// InitDispatcher picks the notification backend: RabbitMQ when a broker is
// configured, the process log otherwise.
func InitDispatcher(cfg *Config) notifications.Dispatcher {
	if cfg.RabbitMQURL != "" {
		return notifications.NewAMQPDispatcher(cfg.RabbitMQURL)
	}
	return notifications.LogDispatcher{}
}
