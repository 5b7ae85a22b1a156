package app

import (
	"database/sql"

	"go-leave/internal/config"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared connections of one process.
type Infra struct {
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.SQLDB != nil {
		_ = i.SQLDB.Close()
	}
}

// Connect opens postgres and, when REDIS_ADDR is set, redis.
func Connect(cfg config.Config, withRedis bool) (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
		cfg.MaxRetries,
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	infra := &Infra{GormDB: gormDB, SQLDB: sqlDB}

	if withRedis && cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.MaxRetries)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
	}

	return infra, nil
}

// BuildApp connects the infrastructure and registers every module on router.
// The returned Infra must be closed by the caller after shutdown.
func BuildApp(router *gin.Engine, cfg config.Config) (*Infra, error) {
	infra, err := Connect(cfg, true)
	if err != nil {
		return nil, err
	}
	if infra.Redis == nil {
		zap.L().Named("app").Warn("REDIS_ADDR not set, balance cache and idempotency disabled")
	}

	if err := registerModules(router, cfg, infra); err != nil {
		infra.Close()
		return nil, err
	}
	return infra, nil
}
