package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNoCandidates        = errors.New("no SQL candidates to select from")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDimensionMismatch   = errors.New("embedding dimension does not match index")
	ErrUnsupportedDataType = errors.New("unsupported datasource type")
	ErrExecutionRefused    = errors.New("statement refused by safety checks")
)
