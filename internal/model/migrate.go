package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра расписания.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Professional{}, "Services", &ProfessionalService{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&Company{},
		&User{},
		&Role{},
		&UserRole{},
		&Client{},
		&Service{},
		&Professional{},
		&ProfessionalService{},
		&WeeklyAvailability{},
		&AvailabilityBlock{},
		&Appointment{},
		&Event{},
		&Notification{},
	)
}
