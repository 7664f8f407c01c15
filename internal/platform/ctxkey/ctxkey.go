// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey declares the context keys for per-request values. Only
// ctxutil should read or write them.
package ctxkey

// Key values never compare equal to context keys declared elsewhere.
type Key uint8

const (
	KeyRequestID Key = iota + 1
	KeyLogger
	KeyUser
)

func (key Key) String() string {
	switch key {
	case KeyRequestID:
		return "request_id"
	case KeyLogger:
		return "logger"
	case KeyUser:
		return "session"
	default:
		return "unknown"
	}
}
