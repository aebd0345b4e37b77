package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort           string
	DatabaseDSN        string
	SeedPath           string
	SupplierAutoCreate bool
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "pharmacy.db"
	}

	autoCreate := true
	if raw := os.Getenv("SUPPLIER_AUTO_CREATE"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("invalid SUPPLIER_AUTO_CREATE value %q, defaulting to true", raw)
		} else {
			autoCreate = parsed
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	return Config{
		HTTPPort:           port,
		DatabaseDSN:        dsn,
		SeedPath:           os.Getenv("SEED_PATH"),
		SupplierAutoCreate: autoCreate,
	}
}
