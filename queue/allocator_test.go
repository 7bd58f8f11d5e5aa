package queue_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"campus-queue-api/models"
	"campus-queue-api/queue"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "queue.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Appointment{},
		&models.AppointmentStatusHistory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDept(t *testing.T, db *gorm.DB) models.Department {
	t.Helper()
	dept := models.Department{Name: "Registrar", Description: "Records"}
	if err := db.Create(&dept).Error; err != nil {
		t.Fatalf("seed department: %v", err)
	}
	return dept
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Name: "Test Student", Email: email, PasswordHash: "x", Role: models.RoleStudent}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func book(t *testing.T, db *gorm.DB, userID, deptID uint, date string) *models.Appointment {
	t.Helper()
	appt := &models.Appointment{
		UserID:       userID,
		DepartmentID: deptID,
		Date:         date,
		Time:         "09:00",
	}
	if err := queue.Book(db, appt); err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestSequentialNumbering(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "seq@test.com")

	for i := 1; i <= 5; i++ {
		appt := book(t, db, user.ID, dept.ID, "2025-01-10")
		if appt.QueueNumber != i {
			t.Errorf("booking %d: expected queue number %d, got %d", i, i, appt.QueueNumber)
		}
		if appt.Status != models.StatusPending {
			t.Errorf("booking %d: expected pending, got %s", i, appt.Status)
		}
	}
}

func TestNumberingIsPerDepartmentPerDay(t *testing.T) {
	db := testDB(t)
	deptA := seedDept(t, db)
	deptB := models.Department{Name: "Bursary"}
	if err := db.Create(&deptB).Error; err != nil {
		t.Fatalf("seed second department: %v", err)
	}
	user := seedUser(t, db, "perdept@test.com")

	a1 := book(t, db, user.ID, deptA.ID, "2025-01-10")
	a2 := book(t, db, user.ID, deptA.ID, "2025-01-11")
	b1 := book(t, db, user.ID, deptB.ID, "2025-01-10")

	if a1.QueueNumber != 1 || a2.QueueNumber != 1 || b1.QueueNumber != 1 {
		t.Errorf("each (department, date) should start at 1: got %d, %d, %d",
			a1.QueueNumber, a2.QueueNumber, b1.QueueNumber)
	}
}

func TestConcurrentBookingDistinctNumbers(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "concurrent@test.com")

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt := &models.Appointment{
				UserID:       user.ID,
				DepartmentID: dept.ID,
				Date:         "2025-01-10",
				Time:         "09:00",
			}
			results <- queue.Book(db, appt)
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Fatalf("concurrent booking failed: %v", err)
		}
	}

	var appointments []models.Appointment
	db.Where("department_id = ? AND date = ?", dept.ID, "2025-01-10").
		Order("queue_number asc").Find(&appointments)
	if len(appointments) != n {
		t.Fatalf("expected %d appointments, got %d", n, len(appointments))
	}
	for i, a := range appointments {
		if a.QueueNumber != i+1 {
			t.Errorf("position %d: expected queue number %d, got %d", i, i+1, a.QueueNumber)
		}
	}
}

func TestServeNextEmptyQueue(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)

	_, err := queue.ServeNext(db, dept.ID, "2025-01-10", 1)
	if !errors.Is(err, queue.ErrNoPending) {
		t.Fatalf("expected ErrNoPending, got %v", err)
	}

	var count int64
	db.Model(&models.AppointmentStatusHistory{}).Count(&count)
	if count != 0 {
		t.Errorf("empty serve-next should not write history, got %d rows", count)
	}
}

func TestServeNextScenario(t *testing.T) {
	// Spec'd walkthrough: A gets #1, B gets #2; serve-next returns A then B,
	// then reports an empty queue.
	db := testDB(t)
	dept := seedDept(t, db)
	userA := seedUser(t, db, "a@test.com")
	userB := seedUser(t, db, "b@test.com")

	a := book(t, db, userA.ID, dept.ID, "2025-01-10")
	b := book(t, db, userB.ID, dept.ID, "2025-01-10")
	if a.QueueNumber != 1 || b.QueueNumber != 2 {
		t.Fatalf("expected numbers 1 and 2, got %d and %d", a.QueueNumber, b.QueueNumber)
	}

	first, err := queue.ServeNext(db, dept.ID, "2025-01-10", 99)
	if err != nil {
		t.Fatalf("first serve-next: %v", err)
	}
	if first.ID != a.ID || first.Status != models.StatusInService {
		t.Errorf("first serve should return A in_service, got id=%d status=%s", first.ID, first.Status)
	}

	second, err := queue.ServeNext(db, dept.ID, "2025-01-10", 99)
	if err != nil {
		t.Fatalf("second serve-next: %v", err)
	}
	if second.ID != b.ID {
		t.Errorf("second serve should return B, got id=%d", second.ID)
	}
	if second.QueueNumber <= first.QueueNumber {
		t.Errorf("served numbers must strictly increase: %d then %d", first.QueueNumber, second.QueueNumber)
	}

	if _, err := queue.ServeNext(db, dept.ID, "2025-01-10", 99); !errors.Is(err, queue.ErrNoPending) {
		t.Fatalf("third serve-next should find empty queue, got %v", err)
	}
}

func TestServeNextSkipsNonPending(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "skip@test.com")

	first := book(t, db, user.ID, dept.ID, "2025-01-10")
	second := book(t, db, user.ID, dept.ID, "2025-01-10")

	// Cancel the head of the queue; serve-next must pick the second ticket
	if err := queue.Transition(db, first, models.StatusCancelled, "student", user.ID, "changed my mind"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	served, err := queue.ServeNext(db, dept.ID, "2025-01-10", 99)
	if err != nil {
		t.Fatalf("serve-next: %v", err)
	}
	if served.ID != second.ID {
		t.Errorf("expected ticket %d, got %d", second.ID, served.ID)
	}
}

func TestRescheduleTakesNewQueueNumber(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "resched@test.com")

	// Three tickets on the original date, two on the target date
	book(t, db, user.ID, dept.ID, "2025-01-10")
	moving := book(t, db, user.ID, dept.ID, "2025-01-10")
	book(t, db, user.ID, dept.ID, "2025-01-10")
	book(t, db, user.ID, dept.ID, "2025-01-20")
	book(t, db, user.ID, dept.ID, "2025-01-20")

	if err := queue.Reschedule(db, moving, "2025-01-20", "14:00"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moving.QueueNumber != 3 {
		t.Errorf("expected queue number 3 on target date, got %d", moving.QueueNumber)
	}
	if moving.Date != "2025-01-20" || moving.Time != "14:00" {
		t.Errorf("date/time not updated: %s %s", moving.Date, moving.Time)
	}
	if moving.Status != models.StatusPending {
		t.Errorf("expected pending after reschedule, got %s", moving.Status)
	}

	// The old date keeps its gap: numbers are never reassigned
	var oldDay []models.Appointment
	db.Where("department_id = ? AND date = ?", dept.ID, "2025-01-10").
		Order("queue_number asc").Find(&oldDay)
	if len(oldDay) != 2 {
		t.Fatalf("expected 2 remaining on old date, got %d", len(oldDay))
	}
	if oldDay[0].QueueNumber != 1 || oldDay[1].QueueNumber != 3 {
		t.Errorf("old date should keep numbers 1 and 3, got %d and %d",
			oldDay[0].QueueNumber, oldDay[1].QueueNumber)
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "invalid@test.com")

	appt := book(t, db, user.ID, dept.ID, "2025-01-10")

	// complete before serve
	if err := queue.Transition(db, appt, models.StatusCompleted, "admin", 99, ""); err == nil {
		t.Error("expected error completing a pending appointment")
	}
	// student cannot serve
	if err := queue.Transition(db, appt, models.StatusInService, "student", user.ID, ""); err == nil {
		t.Error("expected error for student serving a ticket")
	}

	// serve, then serving again must fail
	if err := queue.Transition(db, appt, models.StatusInService, "admin", 99, ""); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if err := queue.Transition(db, appt, models.StatusInService, "admin", 99, ""); err == nil {
		t.Error("expected error serving an in-service appointment")
	}

	// cancel after completion must fail
	if err := queue.Transition(db, appt, models.StatusCompleted, "admin", 99, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := queue.Transition(db, appt, models.StatusCancelled, "admin", 99, ""); err == nil {
		t.Error("expected error cancelling a completed appointment")
	}
}

func TestTransitionWritesHistory(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "history@test.com")

	appt := book(t, db, user.ID, dept.ID, "2025-01-10")
	if err := queue.Transition(db, appt, models.StatusInService, "admin", 42, "called"); err != nil {
		t.Fatalf("serve: %v", err)
	}

	var history models.AppointmentStatusHistory
	if err := db.Where("appointment_id = ?", appt.ID).First(&history).Error; err != nil {
		t.Fatalf("history row missing: %v", err)
	}
	if history.FromStatus != models.StatusPending || history.ToStatus != models.StatusInService {
		t.Errorf("history recorded %s -> %s", history.FromStatus, history.ToStatus)
	}
	if history.ChangedBy != 42 {
		t.Errorf("expected actor 42, got %d", history.ChangedBy)
	}
}

func TestConcurrentServeNextDistinctTickets(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "race@test.com")

	const n = 5
	for i := 0; i < n; i++ {
		book(t, db, user.ID, dept.ID, "2025-01-10")
	}

	var wg sync.WaitGroup
	served := make(chan uint, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := queue.ServeNext(db, dept.ID, "2025-01-10", 99)
			if err != nil {
				t.Errorf("serve-next: %v", err)
				return
			}
			served <- appt.ID
		}()
	}
	wg.Wait()
	close(served)

	seen := map[uint]bool{}
	for id := range served {
		if seen[id] {
			t.Fatalf("ticket %d served twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct tickets served, got %d", n, len(seen))
	}
}

func TestManyDaysIndependentQueues(t *testing.T) {
	db := testDB(t)
	dept := seedDept(t, db)
	user := seedUser(t, db, "days@test.com")

	for day := 1; day <= 3; day++ {
		date := fmt.Sprintf("2025-02-%02d", day)
		for i := 1; i <= day; i++ {
			appt := book(t, db, user.ID, dept.ID, date)
			if appt.QueueNumber != i {
				t.Errorf("%s: expected number %d, got %d", date, i, appt.QueueNumber)
			}
		}
	}
}
