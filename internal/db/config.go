package db

import (
	"fmt"
	"os"
)

// RequiredEnv lists the variables DSNFromEnv needs for the configured driver.
func RequiredEnv() []string {
	if driverFromEnv() == "sqlite3" {
		return []string{"SQLITE_PATH"}
	}
	return []string{
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_HOST", "POSTGRES_PORT",
	}
}

// DSNFromEnv picks the driver from DB_DRIVER (postgres by default) and
// builds its connection string from the environment.
func DSNFromEnv() (driver, dsn string) {
	driver = driverFromEnv()
	if driver == "sqlite3" {
		return driver, os.Getenv("SQLITE_PATH")
	}
	dsn = fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DB"), os.Getenv("POSTGRES_PORT"))
	return driver, dsn
}

func driverFromEnv() string {
	if d := os.Getenv("DB_DRIVER"); d != "" {
		return d
	}
	return "postgres"
}
