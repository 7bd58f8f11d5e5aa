// Package queue implements the ticket-number allocator and the serve-next
// operation. Queue numbers per (department, date) are the contiguous sequence
// 1..N in creation order; the naive MAX+1 read is made safe by the composite
// unique index on (department_id, date, queue_number) plus a bounded retry.
package queue

import (
	"errors"
	"strings"

	"campus-queue-api/models"
	"campus-queue-api/statemachine"

	"gorm.io/gorm"
)

var (
	// ErrNoPending is returned by ServeNext when the day's queue is empty
	ErrNoPending = errors.New("no pending appointment")
	// ErrConflict is returned when a conditional status update lost a race
	ErrConflict = errors.New("appointment was modified concurrently")
)

// Generous: a burst of N concurrent bookings resolves one winner per round,
// so the last one in line needs up to N-1 retries.
const maxRetries = 20

// Book assigns the next queue number for the appointment's (department, date)
// pair and inserts it as pending. Two concurrent bookings can both read the
// same MAX(queue_number); the loser hits the unique index and retries with a
// fresh read, so no two live tickets ever share a number.
func Book(db *gorm.DB, appt *models.Appointment) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			next, err := nextNumber(tx, appt.DepartmentID, appt.Date)
			if err != nil {
				return err
			}
			appt.QueueNumber = next
			appt.Status = models.StatusPending
			return tx.Create(appt).Error
		})
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		appt.ID = 0
	}
	return errors.New("queue number allocation kept conflicting, giving up")
}

// Reschedule moves a pending appointment to a new date/time, assigning a
// fresh number in the target (department, date) queue. The old date's queue
// keeps its gap: cancellation and rescheduling never renumber.
func Reschedule(db *gorm.DB, appt *models.Appointment, newDate, newTime string) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		var next int
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			next, err = nextNumber(tx, appt.DepartmentID, newDate)
			if err != nil {
				return err
			}
			res := tx.Model(&models.Appointment{}).
				Where("id = ? AND status = ?", appt.ID, models.StatusPending).
				Updates(map[string]any{
					"date":         newDate,
					"time":         newTime,
					"queue_number": next,
					"status":       models.StatusPending,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
			return nil
		})
		if err == nil {
			appt.Date = newDate
			appt.Time = newTime
			appt.QueueNumber = next
			appt.Status = models.StatusPending
			return nil
		}
		if !isRetryable(err) {
			return err
		}
	}
	return errors.New("queue number allocation kept conflicting, giving up")
}

// NextPending returns the lowest-numbered pending appointment for the
// department on the given date, or nil when the queue is empty
func NextPending(db *gorm.DB, departmentID uint, date string) (*models.Appointment, error) {
	var appt models.Appointment
	err := db.Preload("User").Preload("Department").
		Where("department_id = ? AND date = ? AND status = ?", departmentID, date, models.StatusPending).
		Order("queue_number asc").
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// ServeNext atomically claims the oldest pending ticket for the department on
// the given date and moves it to in_service. The claim is a conditional
// update on (id, status=pending): if a concurrent admin already took the
// ticket the update affects zero rows and the loop picks the next one.
func ServeNext(db *gorm.DB, departmentID uint, date string, adminID uint) (*models.Appointment, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		var appt models.Appointment
		err := db.Where("department_id = ? AND date = ? AND status = ?",
			departmentID, date, models.StatusPending).
			Order("queue_number asc").
			First(&appt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPending
		}
		if err != nil {
			return nil, err
		}

		if err := Transition(db, &appt, models.StatusInService, "admin", adminID, "Called by serve-next"); err != nil {
			if errors.Is(err, ErrConflict) || isRetryable(err) {
				continue
			}
			return nil, err
		}
		return &appt, nil
	}
	return nil, ErrConflict
}

// Transition applies a validated status change with a conditional update and
// writes the audit-trail row. Returns statemachine errors unchanged so
// handlers can surface them as 422, and ErrConflict when the appointment's
// status moved underneath us.
func Transition(db *gorm.DB, appt *models.Appointment, to models.AppointmentStatus, actor string, actorID uint, note string) error {
	if err := statemachine.CanTransition(appt.Status, to, actor); err != nil {
		return err
	}
	from := appt.Status
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appt.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		if err := tx.Create(&models.AppointmentStatusHistory{
			AppointmentID: appt.ID,
			FromStatus:    from,
			ToStatus:      to,
			ChangedBy:     actorID,
			Note:          note,
		}).Error; err != nil {
			return err
		}
		appt.Status = to
		return nil
	})
}

func nextNumber(tx *gorm.DB, departmentID uint, date string) (int, error) {
	var maxNumber int
	err := tx.Model(&models.Appointment{}).
		Where("department_id = ? AND date = ?", departmentID, date).
		Select("COALESCE(MAX(queue_number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

// isRetryable matches the two losses a concurrent allocator can take: the
// unique index rejecting a stolen number, and sqlite refusing a write-lock
// upgrade mid-transaction.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
