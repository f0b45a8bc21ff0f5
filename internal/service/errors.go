package service

import "errors"

var (
	ErrStoreNil  = errors.New("history store is nil")
	ErrInvalidID = errors.New("invalid calculation id")
)
