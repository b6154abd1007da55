package ftp

import "errors"

var (
	ErrInvalidFrame  = errors.New("invalid frame")
	ErrInvalidOpcode = errors.New("invalid opcode")
	ErrTruncatedData = errors.New("truncated data")
	ErrProtocol      = errors.New("ftp protocol error")
)
