package leave_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-leave/internal/approval"
	approvalerrors "go-leave/internal/approval/errors"
	"go-leave/internal/calendar"
	"go-leave/internal/employee"
	employeeMock "go-leave/internal/employee/mock"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	leaveMock "go-leave/internal/leave/mock"
	"go-leave/internal/leavebalance"
	balanceerrors "go-leave/internal/leavebalance/errors"
	balanceMock "go-leave/internal/leavebalance/mock"
	"go-leave/internal/leavetype"
	leavetypeMock "go-leave/internal/leavetype/mock"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"
	"go-leave/internal/shared/apperror"
	counterMock "go-leave/internal/shared/counter/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

type balanceKey struct {
	employeeID  uuid.UUID
	leaveTypeID int
	year        int
}

// memLeaveRepo keeps requests in memory and enforces the conditional update
// the same way the SQL WHERE clause does.
type memLeaveRepo struct {
	mu       sync.Mutex
	w        *world
	requests map[uuid.UUID]leave.LeaveRequest
}

func cloneRequest(l leave.LeaveRequest) leave.LeaveRequest {
	l.ApprovalHistory = append(datatypes.JSONSlice[approval.HistoryEntry]{}, l.ApprovalHistory...)
	l.Employee = nil
	l.LeaveType = nil
	return l
}

func (r *memLeaveRepo) WithTx(_ *sql.Tx) leave.Repository { return r }

func (r *memLeaveRepo) Create(_ context.Context, l *leave.LeaveRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.CreatedAt = testNow
	r.requests[l.ID] = cloneRequest(*l)
	return nil
}

func (r *memLeaveRepo) FindByID(_ context.Context, id uuid.UUID) (*leave.LeaveRequest, error) {
	r.mu.Lock()
	stored, ok := r.requests[id]
	r.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	l := cloneRequest(stored)
	if e, ok := r.w.employee(l.EmployeeID); ok {
		l.Employee = &e
	}
	lt := r.w.types[l.LeaveTypeID]
	l.LeaveType = &lt
	return &l, nil
}

func (r *memLeaveRepo) FindByEmployee(_ context.Context, employeeID uuid.UUID) ([]leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveRequest
	for _, l := range r.requests {
		if l.EmployeeID == employeeID {
			out = append(out, cloneRequest(l))
		}
	}
	return out, nil
}

func (r *memLeaveRepo) FindPendingByApprover(_ context.Context, approverID uuid.UUID) ([]leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveRequest
	for _, l := range r.requests {
		if l.Status == approval.StatusPending && l.CurrentApproverID != nil && *l.CurrentApproverID == approverID {
			out = append(out, cloneRequest(l))
		}
	}
	return out, nil
}

func (r *memLeaveRepo) HasOverlappingActive(_ context.Context, employeeID uuid.UUID, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.requests {
		if l.EmployeeID != employeeID {
			continue
		}
		if !l.Status.Active() {
			continue
		}
		if !(l.EndDate.Before(start) || l.StartDate.After(end)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLeaveRepo) UpdateIfCurrent(_ context.Context, l *leave.LeaveRequest, expected leave.Guard) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[l.ID]
	if !ok || stored.Status != expected.Status || stored.EscalationLevel != expected.EscalationLevel {
		return false, nil
	}
	switch {
	case expected.CurrentApproverID == nil && stored.CurrentApproverID != nil,
		expected.CurrentApproverID != nil && stored.CurrentApproverID == nil,
		expected.CurrentApproverID != nil && *expected.CurrentApproverID != *stored.CurrentApproverID:
		return false, nil
	}
	r.requests[l.ID] = cloneRequest(*l)
	return true, nil
}

// world is an in-memory org: HR, a director, a manager reporting to the
// director and an employee reporting to the manager.
type world struct {
	t       *testing.T
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leave.Service
	repo    *memLeaveRepo

	mu        sync.Mutex
	employees map[uuid.UUID]employee.Employee
	balances  map[balanceKey]leavebalance.LeaveBalance
	types     map[int]leavetype.LeaveType
	events    []kafka.OutboxEvent
	ledgerOps int
	seq       int64
	now       time.Time
	cleared   []int

	hr, director, manager, staff uuid.UUID
}

func (w *world) employee(id uuid.UUID) (employee.Employee, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.employees[id]
	return e, ok
}

func (w *world) addEmployee(name string, role employee.Role, manager *uuid.UUID) uuid.UUID {
	id := uuid.New()
	w.employees[id] = employee.Employee{ID: id, FullName: name, Role: role, ManagerID: manager, IsActive: true}
	for _, lt := range leavetype.Defaults {
		w.balances[balanceKey{id, lt.ID, testNow.Year()}] = leavebalance.NewBalance(id, lt, testNow.Year(), 0)
	}
	return id
}

func (w *world) balance(employeeID uuid.UUID, leaveTypeID int) leavebalance.LeaveBalance {
	return w.balanceIn(employeeID, leaveTypeID, testNow.Year())
}

func (w *world) balanceIn(employeeID uuid.UUID, leaveTypeID, year int) leavebalance.LeaveBalance {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[balanceKey{employeeID, leaveTypeID, year}]
}

// seedYear opens fresh balance rows for every employee in year.
func (w *world) seedYear(year int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.employees {
		for _, lt := range leavetype.Defaults {
			w.balances[balanceKey{id, lt.ID, year}] = leavebalance.NewBalance(id, lt, year, 0)
		}
	}
}

func (w *world) setNow(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = at
}

func (w *world) clock() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now
}

func (w *world) clearedYears() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.cleared...)
}

func (w *world) eventTypes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.events))
	for i, e := range w.events {
		out[i] = e.EventType
	}
	return out
}

func (w *world) expectTx(commit bool) {
	w.sqlMock.ExpectBegin()
	if commit {
		w.sqlMock.ExpectCommit()
	} else {
		w.sqlMock.ExpectRollback()
	}
}

func newWorld(t *testing.T, cal *calendar.Calendar) *world {
	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := &world{
		t:         t,
		db:        db,
		sqlMock:   sqlMock,
		employees: map[uuid.UUID]employee.Employee{},
		balances:  map[balanceKey]leavebalance.LeaveBalance{},
		types:     map[int]leavetype.LeaveType{},
		now:       testNow,
	}
	for _, lt := range leavetype.Defaults {
		w.types[lt.ID] = lt
	}
	w.repo = &memLeaveRepo{w: w, requests: map[uuid.UUID]leave.LeaveRequest{}}

	w.hr = w.addEmployee("Hema HR", employee.RoleHR, nil)
	w.director = w.addEmployee("Dev Director", employee.RoleDirector, nil)
	w.manager = w.addEmployee("Mira Manager", employee.RoleManager, &w.director)
	w.staff = w.addEmployee("Sam Staff", employee.RoleEmployee, &w.manager)

	employees := employeeMock.NewMockRepository(ctrl)
	employees.EXPECT().WithTx(gomock.Any()).Return(employees).AnyTimes()
	employees.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id uuid.UUID) (*employee.Employee, error) {
			e, ok := w.employee(id)
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &e, nil
		}).AnyTimes()

	types := leavetypeMock.NewMockRepository(ctrl)
	types.EXPECT().WithTx(gomock.Any()).Return(types).AnyTimes()
	types.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id int) (*leavetype.LeaveType, error) {
			lt, ok := w.types[id]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &lt, nil
		}).AnyTimes()

	balances := balanceMock.NewMockRepository(ctrl)
	findBalance := func(_ context.Context, employeeID uuid.UUID, leaveTypeID, year int) (*leavebalance.LeaveBalance, error) {
		w.mu.Lock()
		defer w.mu.Unlock()
		b, ok := w.balances[balanceKey{employeeID, leaveTypeID, year}]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return &b, nil
	}
	balances.EXPECT().WithTx(gomock.Any()).Return(balances).AnyTimes()
	balances.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(findBalance).AnyTimes()
	balances.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(findBalance).AnyTimes()
	balances.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *leavebalance.LeaveBalance) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.balances[balanceKey{b.EmployeeID, b.LeaveTypeID, b.Year}] = *b
			w.ledgerOps++
			return nil
		}).AnyTimes()

	counter := counterMock.NewMockRepository(ctrl)
	counter.EXPECT().WithTx(gomock.Any()).Return(counter).AnyTimes()
	counter.EXPECT().GetNextValue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (int64, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.seq++
			return w.seq, nil
		}).AnyTimes()

	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	outbox.EXPECT().WithTx(gomock.Any()).Return(outbox).AnyTimes()
	outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e kafka.OutboxEvent) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.events = append(w.events, e)
			return nil
		}).AnyTimes()

	readModel := balanceMock.NewMockService(ctrl)
	readModel.EXPECT().Invalidate(gomock.Any(), gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, _ string, year int) {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.cleared = append(w.cleared, year)
		}).AnyTimes()

	clock := w.clock
	w.service = leave.NewServiceWithClock(leave.Deps{
		DB:        db,
		Repo:      w.repo,
		Employees: employees,
		Types:     types,
		Balances:  balances,
		Ledger:    leavebalance.NewLedgerWithClock(balances, clock),
		ReadModel: readModel,
		Counter:   counter,
		Outbox:    outbox,
		Calendar:  cal,
		Policy:    approval.NewPolicy(w.hr),
	}, clock)
	return w
}

func (w *world) apply(actor uuid.UUID, typeID int, start, end string) (leave.LeaveResponse, error) {
	return w.service.Apply(context.Background(), actor.String(), leave.ApplyLeaveRequest{
		LeaveTypeID: typeID, StartDate: start, EndDate: end, Reason: "family",
	})
}

func (w *world) decide(actor uuid.UUID, id, action string) (leave.LeaveResponse, error) {
	return w.service.Decide(context.Background(), actor.String(), id, leave.DecisionRequest{Action: action, Remarks: "ok"})
}

func (w *world) assertBalancesConsistent() {
	w.t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, b := range w.balances {
		assert.True(w.t, b.Consistent(w.types[k.leaveTypeID].IsLop), "balance %+v", b)
	}
}

func TestLeaveService_Apply(t *testing.T) {
	t.Run("manual type waits on direct manager", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)

		resp, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusPending, resp.Status)
		assert.Equal(t, 1, resp.EscalationLevel)
		assert.Equal(t, w.manager.String(), *resp.CurrentApproverID)
		assert.Equal(t, "Mira Manager", resp.ApproverName)
		assert.Equal(t, 2, resp.TotalDays)
		assert.Equal(t, "LR-000001", resp.RequestNumber)
		assert.Equal(t, "Casual Leave", resp.LeaveTypeName)
		assert.Equal(t, 0, w.balance(w.staff, leavetype.CasualLeaveID).Used)
		assert.Equal(t, []string{events.EventLeaveApplied}, w.eventTypes())
		assert.NoError(t, w.sqlMock.ExpectationsWereMet())
	})

	t.Run("auto-approve type settles at once", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)

		resp, err := w.apply(w.staff, leavetype.SickLeaveID, "2026-03-09", "2026-03-11")

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusAutoApproved, resp.Status)
		assert.Nil(t, resp.CurrentApproverID)
		assert.Equal(t, 3, w.balance(w.staff, leavetype.SickLeaveID).Used)
		assert.Equal(t, 7, w.balance(w.staff, leavetype.SickLeaveID).Remaining)
		assert.Equal(t, []string{events.EventLeaveAutoApproved}, w.eventTypes())
		w.assertBalancesConsistent()
	})

	t.Run("employee without manager goes to HR", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)

		resp, err := w.apply(w.director, leavetype.CasualLeaveID, "2026-03-09", "2026-03-09")

		assert.NoError(t, err)
		assert.Equal(t, w.hr.String(), *resp.CurrentApproverID)
		assert.Equal(t, "Hema HR", resp.ApproverName)
	})

	t.Run("HR approver without manager has nobody to ask", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(false)

		_, err := w.apply(w.hr, leavetype.CasualLeaveID, "2026-03-09", "2026-03-09")

		assert.ErrorIs(t, err, approvalerrors.ErrNoApprover)
		assert.Empty(t, w.eventTypes())
	})

	t.Run("overlap with pending request is rejected", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-11")
		assert.NoError(t, err)

		w.expectTx(false)
		_, err = w.apply(w.staff, leavetype.EarnedLeaveID, "2026-03-11", "2026-03-12")
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)

		w.expectTx(true)
		_, err = w.apply(w.staff, leavetype.EarnedLeaveID, "2026-03-12", "2026-03-12")
		assert.NoError(t, err)
	})

	t.Run("overlap with auto-approved request is rejected", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		_, err := w.apply(w.staff, leavetype.SickLeaveID, "2026-03-09", "2026-03-09")
		assert.NoError(t, err)

		w.expectTx(false)
		_, err = w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})

	t.Run("loss of pay skips the balance check", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)

		resp, err := w.apply(w.staff, leavetype.LossOfPayID, "2026-03-09", "2026-03-13")

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusPending, resp.Status)
		assert.Equal(t, 5, resp.TotalDays)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		w := newWorld(t, nil)
		k := balanceKey{w.staff, leavetype.CasualLeaveID, testNow.Year()}
		b := w.balances[k]
		b.Used, b.Remaining = 11, 1
		w.balances[k] = b
		w.expectTx(false)

		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	})

	t.Run("missing balance row is a consistency error", func(t *testing.T) {
		w := newWorld(t, nil)
		delete(w.balances, balanceKey{w.staff, leavetype.CasualLeaveID, testNow.Year()})
		w.expectTx(false)

		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		assert.ErrorIs(t, err, balanceerrors.ErrBalanceMissing)
		assert.True(t, apperror.IsConsistency(err))
	})

	t.Run("holiday only range", func(t *testing.T) {
		cal, err := calendar.FromDates([]string{"2026-03-10"})
		assert.NoError(t, err)
		w := newWorld(t, cal)
		w.expectTx(false)

		_, err = w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-10", "2026-03-10")

		assert.ErrorIs(t, err, leaveerrors.ErrNoWorkingDays)
	})

	t.Run("holidays and weekends are not counted", func(t *testing.T) {
		cal, err := calendar.FromDates([]string{"2026-03-10"})
		assert.NoError(t, err)
		w := newWorld(t, cal)
		w.expectTx(true)

		resp, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-06", "2026-03-11")

		assert.NoError(t, err)
		assert.Equal(t, 3, resp.TotalDays)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name    string
			typeID  int
			start   string
			end     string
			beginTx bool
			wantErr error
		}{
			{"bad date", leavetype.CasualLeaveID, "2026/03/09", "2026-03-09", false, leaveerrors.ErrInvalidDateFormat},
			{"inverted range", leavetype.CasualLeaveID, "2026-03-10", "2026-03-09", false, leaveerrors.ErrInvalidDateRange},
			{"unknown type", 99, "2026-03-09", "2026-03-09", true, leaveerrors.ErrLeaveTypeNotFound},
			{"weekend only", leavetype.CasualLeaveID, "2026-03-07", "2026-03-08", true, leaveerrors.ErrNoWorkingDays},
			{"span over a year", leavetype.CasualLeaveID, "2026-01-01", "2027-01-02", false, leaveerrors.ErrDateRangeTooLong},
			{"far-future span", leavetype.CasualLeaveID, "1900-01-01", "9999-12-31", false, leaveerrors.ErrDateRangeTooLong},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := newWorld(t, nil)
				if tt.beginTx {
					w.expectTx(false)
				}
				_, err := w.apply(w.staff, tt.typeID, tt.start, tt.end)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NoError(t, w.sqlMock.ExpectationsWereMet())
			})
		}
	})

	t.Run("carried-forward days cover a request above the yearly allocation", func(t *testing.T) {
		w := newWorld(t, nil)
		earned := w.types[leavetype.EarnedLeaveID]
		w.balances[balanceKey{w.staff, earned.ID, testNow.Year()}] = leavebalance.NewBalance(w.staff, earned, testNow.Year(), 10)
		w.expectTx(true)

		resp, err := w.apply(w.staff, earned.ID, "2026-03-09", "2026-03-31")

		assert.NoError(t, err)
		assert.Equal(t, 17, resp.TotalDays)
		assert.Greater(t, resp.TotalDays, earned.MaxDays)
		assert.Equal(t, approval.StatusPending, resp.Status)

		w.expectTx(false)
		_, err = w.apply(w.staff, earned.ID, "2026-04-01", "2026-05-06")
		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.NoError(t, w.sqlMock.ExpectationsWereMet())
	})

	t.Run("a full year span passes the range check", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(false)

		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-01-01", "2027-01-01")

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	})

	t.Run("inactive employee", func(t *testing.T) {
		w := newWorld(t, nil)
		e := w.employees[w.staff]
		e.IsActive = false
		w.employees[w.staff] = e
		w.expectTx(false)

		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-09")

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeInactive)
	})

	t.Run("invalid actor", func(t *testing.T) {
		w := newWorld(t, nil)
		_, err := w.service.Apply(context.Background(), "nope", leave.ApplyLeaveRequest{LeaveTypeID: 1})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidActorID)
	})
}

func TestLeaveService_Escalation(t *testing.T) {
	t.Run("long leave goes manager then director and settles", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-13")
		assert.NoError(t, err)
		assert.Equal(t, 5, applied.TotalDays)

		w.expectTx(true)
		step, err := w.decide(w.manager, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, approval.StatusPending, step.Status)
		assert.Equal(t, 2, step.EscalationLevel)
		assert.Equal(t, w.director.String(), *step.CurrentApproverID)
		assert.Equal(t, 0, w.balance(w.staff, leavetype.CasualLeaveID).Used)

		w.expectTx(true)
		final, err := w.decide(w.director, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, final.Status)
		assert.Nil(t, final.CurrentApproverID)
		assert.Len(t, final.ApprovalHistory, 2)
		assert.Equal(t, approval.HistoryForwarded, final.ApprovalHistory[0].Action)
		assert.Equal(t, "Mira Manager", final.ApprovalHistory[0].ApproverName)
		assert.Equal(t, approval.HistoryApproved, final.ApprovalHistory[1].Action)

		b := w.balance(w.staff, leavetype.CasualLeaveID)
		assert.Equal(t, 5, b.Used)
		assert.Equal(t, 7, b.Remaining)
		assert.Equal(t, []string{events.EventLeaveApplied, events.EventLeaveEscalated, events.EventLeaveApproved}, w.eventTypes())
		w.assertBalancesConsistent()
		assert.NoError(t, w.sqlMock.ExpectationsWereMet())
	})

	t.Run("short leave goes manager then HR", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		w.expectTx(true)
		step, err := w.decide(w.manager, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, w.hr.String(), *step.CurrentApproverID)
		assert.Equal(t, 2, step.EscalationLevel)

		w.expectTx(true)
		final, err := w.decide(w.hr, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, final.Status)
		assert.Equal(t, 2, w.balance(w.staff, leavetype.CasualLeaveID).Used)
	})

	t.Run("HR requester is approved by first approver", func(t *testing.T) {
		w := newWorld(t, nil)
		hr2 := w.addEmployee("Hari HR", employee.RoleHR, &w.director)

		w.expectTx(true)
		applied, err := w.apply(hr2, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
		assert.NoError(t, err)
		assert.Equal(t, w.director.String(), *applied.CurrentApproverID)

		w.expectTx(true)
		final, err := w.decide(w.director, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, final.Status)
		assert.Equal(t, 2, w.balance(hr2, leavetype.CasualLeaveID).Used)
	})

	t.Run("loss of pay moves used only", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.LossOfPayID, "2026-03-09", "2026-03-11")
		w.expectTx(true)
		_, _ = w.decide(w.manager, applied.ID, "approve")
		w.expectTx(true)
		final, err := w.decide(w.hr, applied.ID, "approve")

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, final.Status)
		b := w.balance(w.staff, leavetype.LossOfPayID)
		assert.Equal(t, 3, b.Used)
		assert.Equal(t, 0, b.Remaining)
		w.assertBalancesConsistent()
	})

	t.Run("reject ends the request without touching balance", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-13")

		w.expectTx(true)
		resp, err := w.decide(w.manager, applied.ID, "reject")

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusRejected, resp.Status)
		assert.Equal(t, "ok", resp.Remarks)
		assert.Equal(t, 0, w.ledgerOps)
		assert.Equal(t, events.EventLeaveRejected, w.eventTypes()[1])
	})

	t.Run("decision preconditions", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		w.expectTx(false)
		_, err := w.decide(w.director, applied.ID, "approve")
		assert.ErrorIs(t, err, approvalerrors.ErrNotCurrentApprover)

		w.expectTx(false)
		_, err = w.decide(w.manager, applied.ID, "maybe")
		assert.ErrorIs(t, err, approvalerrors.ErrUnknownAction)

		w.expectTx(true)
		_, err = w.decide(w.manager, applied.ID, "reject")
		assert.NoError(t, err)

		w.expectTx(false)
		_, err = w.decide(w.manager, applied.ID, "approve")
		assert.ErrorIs(t, err, approvalerrors.ErrNotPending)

		w.expectTx(false)
		_, err = w.decide(w.manager, uuid.NewString(), "approve")
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

		_, err = w.decide(w.manager, "not-a-uuid", "approve")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
		assert.NoError(t, w.sqlMock.ExpectationsWereMet())
	})

	t.Run("escalation always terminates within three decisions", func(t *testing.T) {
		for _, days := range [][2]string{{"2026-03-09", "2026-03-09"}, {"2026-03-09", "2026-03-13"}} {
			for _, applicant := range []string{"staff", "manager", "director"} {
				w := newWorld(t, nil)
				requester := map[string]uuid.UUID{"staff": w.staff, "manager": w.manager, "director": w.director}[applicant]

				w.expectTx(true)
				resp, err := w.apply(requester, leavetype.CasualLeaveID, days[0], days[1])
				assert.NoError(t, err)

				decisions := 0
				for resp.Status == approval.StatusPending {
					decisions++
					if !assert.LessOrEqual(t, decisions, 3, "%s %v", applicant, days) {
						break
					}
					approver := uuid.MustParse(*resp.CurrentApproverID)
					w.expectTx(true)
					resp, err = w.decide(approver, resp.ID, "approve")
					assert.NoError(t, err)
				}
				assert.Equal(t, approval.StatusApproved, resp.Status)
				assert.Equal(t, 1, w.ledgerOps)
				w.assertBalancesConsistent()
			}
		}
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	cancel := func(w *world, actor uuid.UUID, id string) (leave.LeaveResponse, error) {
		return w.service.Cancel(context.Background(), actor.String(), id, leave.CancelLeaveRequest{Remarks: "plans changed"})
	}

	t.Run("pending request is cancelled without refund", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		w.expectTx(true)
		resp, err := cancel(w, w.staff, applied.ID)

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusCancelled, resp.Status)
		assert.Equal(t, approval.HistoryCancelled, resp.ApprovalHistory[0].Action)
		assert.Equal(t, 0, w.ledgerOps)
		assert.Nil(t, resp.CurrentApproverID)
	})

	t.Run("settled request is refunded", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.SickLeaveID, "2026-03-09", "2026-03-10")
		assert.Equal(t, 2, w.balance(w.staff, leavetype.SickLeaveID).Used)

		w.expectTx(true)
		resp, err := cancel(w, w.staff, applied.ID)

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusCancelled, resp.Status)
		b := w.balance(w.staff, leavetype.SickLeaveID)
		assert.Equal(t, 0, b.Used)
		assert.Equal(t, 10, b.Remaining)
		assert.Equal(t, events.EventLeaveCancelled, w.eventTypes()[1])
		w.assertBalancesConsistent()

		w.expectTx(false)
		_, err = cancel(w, w.staff, applied.ID)
		assert.ErrorIs(t, err, approvalerrors.ErrNotCancellable)
	})

	t.Run("refund lands on the year that was charged", func(t *testing.T) {
		w := newWorld(t, nil)
		w.seedYear(2025)
		w.setNow(time.Date(2025, time.December, 20, 10, 0, 0, 0, time.UTC))

		w.expectTx(true)
		applied, err := w.apply(w.staff, leavetype.CasualLeaveID, "2025-12-22", "2025-12-23")
		assert.NoError(t, err)
		w.expectTx(true)
		_, err = w.decide(w.manager, applied.ID, "approve")
		assert.NoError(t, err)
		w.expectTx(true)
		approved, err := w.decide(w.hr, applied.ID, "approve")
		assert.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, approved.Status)
		assert.Equal(t, 2, w.balanceIn(w.staff, leavetype.CasualLeaveID, 2025).Used)

		w.setNow(time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC))
		w.expectTx(true)
		resp, err := cancel(w, w.staff, applied.ID)

		assert.NoError(t, err)
		assert.Equal(t, approval.StatusCancelled, resp.Status)
		assert.Equal(t, 0, w.balanceIn(w.staff, leavetype.CasualLeaveID, 2025).Used)
		assert.Equal(t, 12, w.balanceIn(w.staff, leavetype.CasualLeaveID, 2025).Remaining)
		assert.Equal(t, 0, w.balanceIn(w.staff, leavetype.CasualLeaveID, 2026).Used)
		assert.Equal(t, 12, w.balanceIn(w.staff, leavetype.CasualLeaveID, 2026).Remaining)
		assert.Equal(t, []int{2025, 2025}, w.clearedYears())

		w.mu.Lock()
		last := w.events[len(w.events)-1]
		w.mu.Unlock()
		var event events.LeaveLifecycleEvent
		assert.NoError(t, json.Unmarshal(last.Payload, &event))
		assert.Equal(t, events.EventLeaveCancelled, event.EventType)
		assert.Equal(t, 2025, event.BalanceYear)
		w.assertBalancesConsistent()
		assert.NoError(t, w.sqlMock.ExpectationsWereMet())
	})

	t.Run("only the requester may cancel", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")

		w.expectTx(false)
		_, err := cancel(w, w.manager, applied.ID)

		assert.ErrorIs(t, err, approvalerrors.ErrNotOwner)
	})

	t.Run("cancelled request frees its dates", func(t *testing.T) {
		w := newWorld(t, nil)
		w.expectTx(true)
		applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
		w.expectTx(true)
		_, _ = cancel(w, w.staff, applied.ID)

		w.expectTx(true)
		_, err := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
		assert.NoError(t, err)
	})
}

func TestLeaveService_Decide_LostRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	db, sqlMock, _ := sqlmock.New()
	defer db.Close()

	hrID, managerID, staffID := uuid.New(), uuid.New(), uuid.New()
	people := map[uuid.UUID]employee.Employee{
		hrID:      {ID: hrID, FullName: "Hema", Role: employee.RoleHR},
		managerID: {ID: managerID, FullName: "Mira", Role: employee.RoleManager},
		staffID:   {ID: staffID, FullName: "Sam", ManagerID: &managerID},
	}
	casual := leavetype.Defaults[0]
	staff := people[staffID]
	stale := &leave.LeaveRequest{
		ID:                uuid.New(),
		EmployeeID:        staffID,
		LeaveTypeID:       casual.ID,
		TotalDays:         2,
		Status:            approval.StatusPending,
		EscalationLevel:   2,
		CurrentApproverID: &hrID,
		Employee:          &staff,
		LeaveType:         &casual,
	}

	repo := leaveMock.NewMockRepository(ctrl)
	employees := employeeMock.NewMockRepository(ctrl)
	ledger := balanceMock.NewMockLedger(ctrl)
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)

	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	repo.EXPECT().WithTx(gomock.Any()).Return(repo)
	employees.EXPECT().WithTx(gomock.Any()).Return(employees)
	repo.EXPECT().FindByID(gomock.Any(), stale.ID).Return(stale, nil)
	employees.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id uuid.UUID) (*employee.Employee, error) {
			e, ok := people[id]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &e, nil
		}).AnyTimes()
	repo.EXPECT().UpdateIfCurrent(gomock.Any(), gomock.Any(), leave.Guard{
		Status:            approval.StatusPending,
		EscalationLevel:   2,
		CurrentApproverID: &hrID,
	}).DoAndReturn(func(_ context.Context, l *leave.LeaveRequest, _ leave.Guard) (bool, error) {
		assert.Equal(t, approval.StatusApproved, l.Status)
		return false, nil
	})
	ledger.EXPECT().Apply(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	svc := leave.NewService(leave.Deps{
		DB:        db,
		Repo:      repo,
		Employees: employees,
		Ledger:    ledger,
		Outbox:    outbox,
		Policy:    approval.NewPolicy(hrID),
	})

	_, err := svc.Decide(context.Background(), hrID.String(), stale.ID.String(), leave.DecisionRequest{Action: "approve"})

	assert.ErrorIs(t, err, leaveerrors.ErrAlreadyProcessed)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLeaveService_Decide_Concurrent(t *testing.T) {
	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round %d", round), func(t *testing.T) {
			w := newWorld(t, nil)
			w.db.SetMaxOpenConns(1)

			w.expectTx(true)
			applied, err := w.apply(w.director, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
			assert.NoError(t, err)
			assert.Equal(t, w.hr.String(), *applied.CurrentApproverID)

			w.sqlMock.MatchExpectationsInOrder(false)
			w.sqlMock.ExpectBegin()
			w.sqlMock.ExpectBegin()
			w.sqlMock.ExpectCommit()
			w.sqlMock.ExpectRollback()

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = w.decide(w.hr, applied.ID, "approve")
				}(i)
			}
			wg.Wait()

			failures := 0
			for _, err := range errs {
				if err == nil {
					continue
				}
				failures++
				assert.True(t,
					errors.Is(err, approvalerrors.ErrNotPending) || errors.Is(err, leaveerrors.ErrAlreadyProcessed),
					"unexpected error %v", err)
			}
			assert.Equal(t, 1, failures)
			assert.Equal(t, 1, w.ledgerOps)
			assert.Equal(t, 2, w.balance(w.director, leavetype.CasualLeaveID).Used)
			w.assertBalancesConsistent()
		})
	}
}

func TestLeaveService_Reads(t *testing.T) {
	w := newWorld(t, nil)
	w.expectTx(true)
	applied, _ := w.apply(w.staff, leavetype.CasualLeaveID, "2026-03-09", "2026-03-10")
	ctx := context.Background()

	t.Run("visibility", func(t *testing.T) {
		tests := []struct {
			name    string
			actor   uuid.UUID
			role    string
			wantErr error
		}{
			{"owner", w.staff, "EMPLOYEE", nil},
			{"current approver", w.manager, "MANAGER", nil},
			{"hr approver", w.hr, "HR", nil},
			{"stranger", w.director, "DIRECTOR", leaveerrors.ErrLeaveAccessDenied},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := w.service.GetByID(ctx, tt.actor.String(), tt.role, applied.ID)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					return
				}
				assert.NoError(t, err)
				assert.Equal(t, applied.ID, resp.ID)
				assert.Equal(t, "Sam Staff", resp.EmployeeName)
			})
		}
	})

	t.Run("pending approvals of manager", func(t *testing.T) {
		resp, err := w.service.GetPendingApprovals(ctx, w.manager.String())
		assert.NoError(t, err)
		assert.Len(t, resp, 1)

		resp, err = w.service.GetPendingApprovals(ctx, w.director.String())
		assert.NoError(t, err)
		assert.Empty(t, resp)
	})

	t.Run("requests of employee", func(t *testing.T) {
		mine, err := w.service.GetMine(ctx, w.staff.String())
		assert.NoError(t, err)
		assert.Len(t, mine, 1)

		_, err = w.service.GetByEmployee(ctx, "bad")
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidEmployeeID)
	})
}
