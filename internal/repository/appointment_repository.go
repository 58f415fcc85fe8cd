package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/scheduling-core/internal/model"
)

// AppointmentFilter: фильтр списка записей; нулевые поля не применяются.
type AppointmentFilter struct {
	From           time.Time
	To             time.Time
	ProfessionalID uuid.UUID
	Status         model.AppointmentStatus
}

type AppointmentRepository interface {
	// CreateExclusive вставляет запись в транзакции: блокирует строку специалиста,
	// читает его активные записи на ту же дату и отдаёт их в check.
	// Ошибка check откатывает транзакцию и возвращается как есть.
	CreateExclusive(ctx context.Context, a *model.Appointment, check func(existing []model.Appointment) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Активные (не отменённые) записи специалиста на дату.
	ListActiveByDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.Appointment, error)
	List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]model.Appointment, int64, error)
	// UpdateStatus меняет статус только если текущий равен from; иначе ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, cancelledAt *time.Time) error
	// Записи без отправленного напоминания в диапазоне дат.
	ListPendingReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) CreateExclusive(
	ctx context.Context,
	a *model.Appointment,
	check func(existing []model.Appointment) error,
) error {
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	a.CompanyID = companyID

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокировка строки специалиста сериализует бронирования к нему.
		var p model.Professional
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ? AND id = ?", companyID, a.ProfessionalID).
			First(&p).Error; err != nil {
			return err
		}

		var existing []model.Appointment
		if err := tx.
			Where("company_id = ? AND professional_id = ? AND date = ? AND status <> ?",
				companyID, a.ProfessionalID, a.Date, model.AppointmentStatusCancelled).
			Find(&existing).Error; err != nil {
			return err
		}

		if check != nil {
			if err := check(existing); err != nil {
				return err
			}
		}

		return tx.Create(a).Error
	})
	return translate(err)
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var a model.Appointment
	if err := q.First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormAppointmentRepository) ListActiveByDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.Appointment, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var list []model.Appointment
	err = q.
		Where("professional_id = ? AND date = ?", professionalID, datatypes.Date(date)).
		Where("status <> ?", model.AppointmentStatusCancelled).
		Order("start_time ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormAppointmentRepository) List(
	ctx context.Context,
	f AppointmentFilter,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}
	q = q.Model(&model.Appointment{})
	if !f.From.IsZero() {
		q = q.Where("date >= ?", datatypes.Date(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", datatypes.Date(f.To))
	}
	if f.ProfessionalID != uuid.Nil {
		q = q.Where("professional_id = ?", f.ProfessionalID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var list []model.Appointment
	if err := q.Order("date ASC").Order("start_time ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to model.AppointmentStatus,
	cancelledAt *time.Time,
) error {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	update := map[string]any{
		"status": to,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	res := q.
		Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(update)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *GormAppointmentRepository) ListPendingReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var list []model.Appointment
	err = q.
		Where("reminder_sent = ?", false).
		Where("status IN ?", []model.AppointmentStatus{model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed}).
		Where("date >= ? AND date <= ?", datatypes.Date(from), datatypes.Date(to)).
		Order("date ASC").Order("start_time ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormAppointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	return q.Model(&model.Appointment{}).Where("id = ?", id).Update("reminder_sent", true).Error
}
