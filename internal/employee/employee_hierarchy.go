package employee

import (
	"context"
	"errors"
	"fmt"

	employeeerrors "go-leave/internal/employee/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxChainDepth bounds every walk up the reporting line.
const MaxChainDepth = 10

// Hierarchy answers org-chart questions for the approval flow.
type Hierarchy interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	// GetManagerChain returns manager, manager's manager, ... up to depth
	// entries. depth <= 0 walks the whole chain.
	GetManagerChain(ctx context.Context, id uuid.UUID, depth int) ([]Employee, error)
	GetReportees(ctx context.Context, managerID uuid.UUID) ([]Employee, error)
}

type hierarchy struct {
	repo   Repository
	logger *zap.Logger
}

func NewHierarchy(repo Repository, logger ...*zap.Logger) Hierarchy {
	l := zap.L().Named("employee.hierarchy")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.hierarchy")
	}
	return &hierarchy{repo: repo, logger: l}
}

func (h *hierarchy) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	e, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return e, nil
}

func (h *hierarchy) GetManagerChain(ctx context.Context, id uuid.UUID, depth int) ([]Employee, error) {
	full := depth <= 0 || depth > MaxChainDepth
	if full {
		depth = MaxChainDepth
	}

	current, err := h.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]struct{}{id: {}}
	chain := make([]Employee, 0, depth)

	for len(chain) < depth && current.ManagerID != nil {
		managerID := *current.ManagerID
		if _, seen := visited[managerID]; seen {
			h.logger.Error("manager chain cycle detected",
				zap.String("employee_id", id.String()),
				zap.String("revisited_id", managerID.String()),
			)
			return nil, fmt.Errorf("from %s: %w", id, employeeerrors.ErrHierarchyCycle)
		}
		visited[managerID] = struct{}{}

		manager, err := h.repo.FindByID(ctx, managerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.logger.Error("manager chain references missing employee",
					zap.String("employee_id", current.ID.String()),
					zap.String("manager_id", managerID.String()),
				)
				return nil, fmt.Errorf("manager %s: %w", managerID, employeeerrors.ErrDanglingManager)
			}
			return nil, err
		}

		chain = append(chain, *manager)
		current = manager
	}

	if full && current.ManagerID != nil {
		h.logger.Error("manager chain exceeds max depth",
			zap.String("employee_id", id.String()),
			zap.Int("max_depth", MaxChainDepth),
		)
		return nil, fmt.Errorf("from %s: %w", id, employeeerrors.ErrHierarchyTooDeep)
	}

	return chain, nil
}

func (h *hierarchy) GetReportees(ctx context.Context, managerID uuid.UUID) ([]Employee, error) {
	emps, err := h.repo.FindByManager(ctx, managerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return emps, nil
}

// ensureAcyclic rejects making managerID the manager of employeeID when
// employeeID already sits somewhere above managerID.
func ensureAcyclic(ctx context.Context, h Hierarchy, employeeID, managerID uuid.UUID) error {
	if employeeID == managerID {
		return employeeerrors.ErrManagerCycle
	}

	chain, err := h.GetManagerChain(ctx, managerID, 0)
	if err != nil {
		return err
	}
	for _, m := range chain {
		if m.ID == employeeID {
			return employeeerrors.ErrManagerCycle
		}
	}
	return nil
}
