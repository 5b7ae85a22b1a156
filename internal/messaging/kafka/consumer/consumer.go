package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// BalanceCacheInvalidator drops cached balance read models.
type BalanceCacheInvalidator interface {
	Invalidate(ctx context.Context, employeeID string, year int)
}

// ConsumeLeaveLifecycle keeps the balance read model fresh for events that
// moved the ledger and writes an audit line for every transition.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	balances BalanceCacheInvalidator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		handleLeaveLifecycle(ctx, msg, balances, log)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
		}
	}
}

func handleLeaveLifecycle(ctx context.Context, msg kafkago.Message, balances BalanceCacheInvalidator, log *zap.Logger) {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode leave lifecycle event failed",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}

	if event.TouchesBalance() && balances != nil {
		year := event.BalanceYear
		if year == 0 {
			year = event.OccurredAt.UTC().Year()
		}
		balances.Invalidate(ctx, event.EmployeeID, year)
	}

	log.Info("leave audit",
		zap.String("request_id", event.RequestID),
		zap.String("event_type", event.EventType),
		zap.String("leave_request_id", event.LeaveRequestID),
		zap.String("request_number", event.RequestNumber),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
		zap.Int("escalation_level", event.EscalationLevel),
		zap.String("approver_id", event.ApproverID),
		zap.String("balance_mutation", event.BalanceMutation),
		zap.Time("occurred_at", event.OccurredAt),
	)
}

// ConsumeEmployeeLifecycle drops cached balances of removed employees.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	balances BalanceCacheInvalidator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		handleEmployeeLifecycle(ctx, msg, balances, log)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
		}
	}
}

func handleEmployeeLifecycle(ctx context.Context, msg kafkago.Message, balances BalanceCacheInvalidator, log *zap.Logger) {
	var event events.EmployeeLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode employee lifecycle event failed", zap.Error(err))
		return
	}

	if event.EventType == events.EventEmployeeDeleted && balances != nil {
		balances.Invalidate(ctx, event.EmployeeID, time.Now().UTC().Year())
	}

	log.Info("employee audit",
		zap.String("request_id", event.RequestID),
		zap.String("event_type", event.EventType),
		zap.String("employee_id", event.EmployeeID),
		zap.String("employee_number", event.EmployeeNumber),
	)
}
