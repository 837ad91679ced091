package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matricula/matricula/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newStudent(name string) *model.Student {
	enrolled, _ := model.ParseDate("2024-02-01")
	end, _ := model.ParseDate("2024-12-31")
	return &model.Student{
		Name:           name,
		Contact:        name + "@example.com",
		Phone:          "11999990000",
		PaymentMethod:  model.PaymentPix,
		EnrollmentDate: enrolled,
		PlanEndDate:    &end,
		MonthlyFee:     15000,
	}
}

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(openTestDB(t))

	u := &model.User{Username: "admin", PasswordHash: "hash"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Fatalf("create did not populate generated fields: %+v", u)
	}

	dup := &model.User{Username: "admin", PasswordHash: "other"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicateUsername", err)
	}

	got, err := repo.GetByUsername(ctx, "admin")
	if err != nil || got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("GetByUsername = %+v, %v", got, err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestGormStudentAndPaymentRepositories(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	students := NewGormStudentRepository(db)
	payments := NewGormPaymentRepository(db)

	ana := newStudent("ana")
	bruno := newStudent("bruno")
	bruno.PlanEndDate = nil
	for _, s := range []*model.Student{ana, bruno} {
		if err := students.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.Name, err)
		}
	}

	got, err := students.GetByID(ctx, ana.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EnrollmentDate.String() != "2024-02-01" || got.PlanEndDate == nil || got.PlanEndDate.String() != "2024-12-31" {
		t.Fatalf("dates not round-tripped: %+v", got)
	}
	if got.MonthlyFee != 15000 || got.PaymentMethod != model.PaymentPix {
		t.Fatalf("fields not round-tripped: %+v", got)
	}

	page, total, err := students.ListPaginated(ctx, 1, 1)
	if err != nil || total != 2 || len(page) != 1 || page[0].ID != bruno.ID {
		t.Fatalf("ListPaginated = %+v, %d, %v", page, total, err)
	}

	p := &model.Payment{StudentID: ana.ID, Period: "2024-02"}
	if err := payments.Create(ctx, p); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.ID == 0 || time.Since(p.PaidAt) > time.Minute {
		t.Fatalf("payment not populated: %+v", p)
	}

	list, err := payments.ListByStudent(ctx, ana.ID)
	if err != nil || len(list) != 1 || list[0].Period != "2024-02" {
		t.Fatalf("ListByStudent = %+v, %v", list, err)
	}

	delinquent, err := students.ListWithoutPayments(ctx)
	if err != nil || len(delinquent) != 1 || delinquent[0].ID != bruno.ID {
		t.Fatalf("ListWithoutPayments = %+v, %v", delinquent, err)
	}

	all, err := students.ListAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListAll = %+v, %v", all, err)
	}
}

func TestGormAuditRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewGormAuditRepository(db)

	if err := repo.InsertBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	events := []model.AuditEvent{
		{Kind: model.AuditLogin, ActorID: 1, CreatedAt: time.Now().UTC()},
		{Kind: model.AuditStudentEnrolled, ActorID: 1, SubjectID: 7, Payload: `{"name":"ana"}`, CreatedAt: time.Now().UTC()},
	}
	if err := repo.InsertBatch(ctx, events); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	var n int64
	if err := db.Model(&auditRow{}).Count(&n).Error; err != nil || n != 2 {
		t.Fatalf("audit rows = %d, %v", n, err)
	}
}
