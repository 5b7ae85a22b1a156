package approvalerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"Invalid or already processed request",
		http.StatusBadRequest,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeInvalidState,
		"Request is not awaiting your approval",
		http.StatusBadRequest,
	)
	ErrUnknownAction = apperror.New(
		apperror.CodeInvalidInput,
		"Action must be approve or reject",
		http.StatusBadRequest,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"Only the requester can cancel this leave request",
		http.StatusForbidden,
	)
	ErrNotCancellable = apperror.New(
		apperror.CodeInvalidState,
		"Leave request can no longer be cancelled",
		http.StatusBadRequest,
	)
)

var ErrNoApprover = apperror.New(
	apperror.CodeInvalidInput,
	"No approver is configured for this employee",
	http.StatusBadRequest,
)
