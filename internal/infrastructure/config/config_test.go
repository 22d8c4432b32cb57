package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
jwt:
  secret: test-secret
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Order.PaymentPeriod)
	assert.Equal(t, time.Minute, cfg.Order.AbandonInterval)
	assert.True(t, cfg.Order.AbandonEnabled)
	assert.False(t, cfg.Redis.Enabled)

	amounts, err := cfg.Pricing.Amounts()
	require.NoError(t, err)
	assert.Equal(t, "9.90", amounts.CourierFee.StringFixed(2))
	assert.True(t, amounts.SelfPickupFee.IsZero())
	assert.Equal(t, "100", amounts.FreeDeliveryThreshold.String())
	assert.Equal(t, "200", amounts.HalfPriceBookThreshold.String())
	assert.Equal(t, "400", amounts.FreeCheapestBookThreshold.String())
}

func TestLoadFile_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: pw
  dbname: orders
jwt:
  secret: test-secret
order:
  payment_period: 30m
pricing:
  courier_fee: "12.50"
`)
	t.Setenv("BOOKSTORE_DATABASE_PASSWORD", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Order.PaymentPeriod)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "app:from-env@tcp(db:3306)/orders?charset=utf8mb4&parseTime=true&loc=UTC", cfg.Database.DSN())

	amounts, err := cfg.Pricing.Amounts()
	require.NoError(t, err)
	assert.Equal(t, "12.50", amounts.CourierFee.StringFixed(2))
}

func TestLoadFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver": `
database:
  driver: postgres
jwt:
  secret: s
`,
		"missing secret": `
database:
  driver: sqlite
`,
		"bad amount": `
database:
  driver: sqlite
jwt:
  secret: s
pricing:
  courier_fee: abc
`,
		"negative amount": `
database:
  driver: sqlite
jwt:
  secret: s
pricing:
  courier_fee: "-1"
`,
		"release with default secret": `
server:
  mode: release
database:
  driver: sqlite
jwt:
  secret: your-secret-key-change-in-production
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
