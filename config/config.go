package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	// Token des Seed-Admins; wenn leer, wird beim Start eines generiert und geloggt.
	AdminAPIToken string `envconfig:"ADMIN_API_TOKEN"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@pathshala.dev"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Pathshala Admin"`

	// Nächtlicher Neuaufbau aller Performance-Profile (Streak-Korrektur).
	RecomputeCronSchedule string `envconfig:"RECOMPUTE_CRON_SCHEDULE" default:"10 0 * * *"`

	// Standard- und Maximalwerte für Paginierung öffentlicher Listen.
	DefaultPageSize int `envconfig:"DEFAULT_PAGE_SIZE" default:"10"`
	MaxPageSize     int `envconfig:"MAX_PAGE_SIZE" default:"100"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
