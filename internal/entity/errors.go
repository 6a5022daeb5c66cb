package entity

import "errors"

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrQuoteNotFound    = errors.New("quote not found")
	ErrBatchJobNotFound = errors.New("batch job not found")
)
