package balanceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year must be between 2000 and 2100",
		http.StatusBadRequest,
	)
	ErrInvalidMutation = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave balance mutation",
		http.StatusBadRequest,
	)
	ErrNoSourceBalances = apperror.New(
		apperror.CodeNotFound,
		"no leave balances found for the previous year",
		http.StatusNotFound,
	)
	// balances are provisioned at onboarding; a missing row is an upstream bug
	ErrBalanceMissing = apperror.Consistency(
		"leave balance is not provisioned for this employee and leave type",
		nil,
	)
	ErrRefundExceedsUsed = apperror.Consistency(
		"leave balance refund exceeds used days",
		nil,
	)
)
