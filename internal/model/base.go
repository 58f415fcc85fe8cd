package model

import "github.com/google/uuid"

// ensureID проставляет UUID до вставки: в sqlite нет gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
