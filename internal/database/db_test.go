package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/parking-spot-exchange/internal/config"
)

func TestDSNIncludesConnectionSettings(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "parking",
	}
	got := dsn(cfg)
	assert.Contains(t, got, "app:s3cret@tcp(db.internal:3306)/parking")
	assert.Contains(t, got, "parseTime=true")
	assert.Contains(t, got, "charset=utf8mb4")
	assert.Contains(t, got, "timeout=5s")
}

func TestDSNOmitsEmptyPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "parking",
	}
	assert.Contains(t, dsn(cfg), "app@tcp(localhost:3306)/parking")
}
