package availability

import "errors"

var (
	// ErrInvalidInput: запрос некорректен (дата, идентификаторы).
	// Отличает "плохой запрос" от "слотов нет".
	ErrInvalidInput = errors.New("invalid availability query")
	// ErrUnavailable: хранилище недоступно; ошибку можно повторить.
	ErrUnavailable = errors.New("availability temporarily unavailable")
)
