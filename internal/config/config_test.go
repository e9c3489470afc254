package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsStallingOverlap(t *testing.T) {
	cases := []struct {
		name     string
		maxWords int
		overlap  int
	}{
		{"overlap equals window", 200, 200},
		{"overlap above window", 200, 250},
		{"negative overlap", 200, -1},
		{"zero window", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Chunker.MaxWords = tc.maxWords
			cfg.Chunker.Overlap = tc.overlap
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsNegativeDepth(t *testing.T) {
	cfg := defaultConfig()
	cfg.Crawler.MaxDepth = -1
	assert.Error(t, cfg.Validate())
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "app"
	cfg.MySQL.Password = "secret"
	cfg.MySQL.Host = "db"
	cfg.MySQL.Port = 3306
	cfg.MySQL.DB = "legischat"
	cfg.MySQL.Params = "parseTime=true"
	assert.Equal(t, "app:secret@tcp(db:3306)/legischat?parseTime=true", cfg.MySQLDSN())
}
