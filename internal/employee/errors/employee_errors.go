package employeeerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrManagerNotFound = apperror.New(
		apperror.CodeNotFound,
		"Manager not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrEmployeeNumberAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee number already exists",
		http.StatusConflict,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be one of EMPLOYEE, MANAGER, DIRECTOR, HR",
		http.StatusBadRequest,
	)
	ErrManagerCycle = apperror.New(
		apperror.CodeInvalidInput,
		"Manager assignment would create a reporting cycle",
		http.StatusBadRequest,
	)
	ErrHasReportees = apperror.New(
		apperror.CodeConflict,
		"Employee still has reportees; reassign them first",
		http.StatusConflict,
	)
	ErrSearchQueryRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Search query is required",
		http.StatusBadRequest,
	)
	ErrHierarchyCycle = apperror.Consistency(
		"Manager chain contains a cycle",
		nil,
	)
	ErrHierarchyTooDeep = apperror.Consistency(
		"Manager chain exceeds the maximum depth",
		nil,
	)
	ErrDanglingManager = apperror.Consistency(
		"Manager chain references a missing employee",
		nil,
	)
)
