package models

import "time"

// AppointmentStatus represents all possible states of a queue ticket
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusInService AppointmentStatus = "in_service"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked queue ticket. QueueNumber is the per-department
// per-day sequential position; the composite unique index on
// (department_id, date, queue_number) is what keeps concurrent bookings from
// ever sharing a number.
type Appointment struct {
	ID            uint                       `json:"id" gorm:"primaryKey"`
	UserID        uint                       `json:"user_id" gorm:"not null"`
	User          User                       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	DepartmentID  uint                       `json:"department_id" gorm:"not null;uniqueIndex:idx_dept_date_queue"`
	Department    Department                 `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Date          string                     `json:"date" gorm:"not null;uniqueIndex:idx_dept_date_queue"` // YYYY-MM-DD
	Time          string                     `json:"time" gorm:"not null"`                                 // HH:MM
	Reason        string                     `json:"reason"`
	QueueNumber   int                        `json:"queue_number" gorm:"not null;uniqueIndex:idx_dept_date_queue"`
	Status        AppointmentStatus          `json:"status" gorm:"not null;default:'pending'"`
	StatusHistory []AppointmentStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:AppointmentID"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// AppointmentStatusHistory tracks every status change — audit trail
type AppointmentStatusHistory struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	AppointmentID uint              `json:"appointment_id" gorm:"not null"`
	FromStatus    AppointmentStatus `json:"from_status"`
	ToStatus      AppointmentStatus `json:"to_status" gorm:"not null"`
	ChangedBy     uint              `json:"changed_by"` // user ID who triggered the transition
	Note          string            `json:"note"`
	CreatedAt     time.Time         `json:"created_at"`
}
