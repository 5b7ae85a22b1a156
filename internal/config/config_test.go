package config_test

import (
	"testing"

	"go-leave/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		hrID := uuid.New()
		t.Setenv("HR_APPROVER_ID", hrID.String())
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("PORT", "")
		t.Setenv("SEED_LEAVE_TYPES", "")
		t.Setenv("HOLIDAYS", "2025-01-01, 2025-12-25,")

		cfg, err := config.Load()

		assert.NoError(t, err)
		assert.Equal(t, hrID, cfg.HRApproverID)
		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, []string{"2025-01-01", "2025-12-25"}, cfg.Holidays)
		assert.Equal(t, float64(10), cfg.RateLimitRPS)
		assert.Equal(t, 20, cfg.RateLimitBurst)
		assert.False(t, cfg.SeedLeaveTypes)
	})

	t.Run("seed flag parsed", func(t *testing.T) {
		t.Setenv("HR_APPROVER_ID", uuid.NewString())
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SEED_LEAVE_TYPES", "true")

		cfg, err := config.Load()

		assert.NoError(t, err)
		assert.True(t, cfg.SeedLeaveTypes)
	})

	t.Run("negative invalid seed flag", func(t *testing.T) {
		t.Setenv("HR_APPROVER_ID", uuid.NewString())
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SEED_LEAVE_TYPES", "yes")

		_, err := config.Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "SEED_LEAVE_TYPES")
	})

	t.Run("negative missing hr approver", func(t *testing.T) {
		t.Setenv("HR_APPROVER_ID", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := config.Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "HR_APPROVER_ID is required")
	})

	t.Run("negative invalid hr approver", func(t *testing.T) {
		t.Setenv("HR_APPROVER_ID", "401")
		t.Setenv("JWT_SECRET", "")

		_, err := config.Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "HR_APPROVER_ID")
		assert.Contains(t, err.Error(), "JWT_SECRET is required")
	})
}
