package app

import (
	"context"
	"net/http"
	"time"

	"go-leave/internal/approval"
	"go-leave/internal/calendar"
	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/leavebalance"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/counter"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const startupTimeout = 30 * time.Second

func newCalendar(cfg config.Config) (*calendar.Calendar, error) {
	if len(cfg.Holidays) == 0 {
		return calendar.Default(), nil
	}
	return calendar.FromDates(cfg.Holidays)
}

func newRBACService(ctx context.Context, repo rbac.Repository, logger *zap.Logger) (rbac.Service, error) {
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return nil, err
	}

	svc := rbac.NewService(repo, enforcer, logger)
	if err := svc.LoadPolicy(ctx); err != nil {
		// tables not migrated yet: serve the built-in policy
		logger.Warn("load rbac policy from database failed, using defaults", zap.Error(err))
		svc = rbac.NewService(nil, enforcer, logger)
		if err := svc.LoadPolicy(ctx); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func registerModules(router *gin.Engine, cfg config.Config, in *Infra) error {
	logger := zap.L()
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	cal, err := newCalendar(cfg)
	if err != nil {
		return err
	}

	// --- Repositories ---
	employeeRepo := employee.NewRepository(in.GormDB)
	leaveRepo := leave.NewRepository(in.GormDB)
	leaveTypeRepo := leavetype.NewRepository(in.GormDB)
	balanceRepo := leavebalance.NewRepository(in.GormDB)
	counterRepo := counter.NewRepository(in.GormDB)
	outboxRepo := kafka.NewOutboxRepository(in.SQLDB)

	// --- RBAC Core ---
	rbacService, err := newRBACService(ctx, rbac.NewRepository(in.GormDB), logger)
	if err != nil {
		return err
	}

	// --- Services ---
	leaveTypeService := leavetype.NewService(leaveTypeRepo, logger)
	if cfg.SeedLeaveTypes {
		if err := leaveTypeService.Seed(ctx); err != nil {
			return err
		}
	}

	balanceService := leavebalance.NewService(in.SQLDB, balanceRepo, leaveTypeRepo, in.Redis, logger)
	ledger := leavebalance.NewLedger(balanceRepo, logger)

	employeeService := employee.NewService(employee.Deps{
		DB:        in.SQLDB,
		Repo:      employeeRepo,
		Balances:  balanceRepo,
		Types:     leaveTypeRepo,
		ReadModel: balanceService,
		Counter:   counterRepo,
		Outbox:    outboxRepo,
	}, logger)

	leaveService := leave.NewService(leave.Deps{
		DB:        in.SQLDB,
		Repo:      leaveRepo,
		Employees: employeeRepo,
		Types:     leaveTypeRepo,
		Balances:  balanceRepo,
		Ledger:    ledger,
		ReadModel: balanceService,
		Counter:   counterRepo,
		Outbox:    outboxRepo,
		Calendar:  cal,
		Policy:    approval.NewPolicy(cfg.HRApproverID),
	}, logger)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, in.Redis, logger)
	balanceHandler := leavebalance.NewHandler(balanceService)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	calendarHandler := calendar.NewHandler(cal)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	router.Use(
		middleware.ContextLogger(logger),
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	)

	router.GET("/health", func(c *gin.Context) {
		if err := in.SQLDB.PingContext(c.Request.Context()); err != nil {
			response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "Database unavailable", nil)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler, rbacService, auth)
		leave.RegisterRoutes(api, leaveHandler, rbacService, auth, in.Redis, logger)
		leavebalance.RegisterRoutes(api, balanceHandler, rbacService, auth)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService, auth)
		calendar.RegisterRoutes(api, calendarHandler, rbacService, auth)
		rbac.RegisterRoutes(api, rbacHandler, auth)
	}

	return nil
}
