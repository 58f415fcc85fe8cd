package service

import "errors"

var (
	// ErrInvalidArgument: запрос не прошёл валидацию.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSlotUnavailable: время уже занято или не входит в доступные слоты.
	ErrSlotUnavailable   = errors.New("slot is no longer available")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrNotImpersonating  = errors.New("request is not impersonating a company")
)
