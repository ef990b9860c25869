package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Student {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email, types.RoleStudent)
	s := &types.Student{ID: uuid.New(), UserID: u.ID}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedSupervisor(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, totalSpots, availableSpots int) *types.Supervisor {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email, types.RoleSupervisor)
	sup := &types.Supervisor{
		ID:             uuid.New(),
		UserID:         u.ID,
		TotalSpots:     totalSpots,
		AvailableSpots: availableSpots,
	}
	if err := tx.WithContext(ctx).Create(sup).Error; err != nil {
		tb.Fatalf("seed supervisor: %v", err)
	}
	return sup
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tag {
	tb.Helper()
	tag := &types.Tag{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}

func SeedRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, supervisorID uuid.UUID, state types.RequestState) *types.SupervisionRequest {
	tb.Helper()
	req := &types.SupervisionRequest{
		ID:           uuid.New(),
		StudentID:    studentID,
		SupervisorID: supervisorID,
		State:        state,
	}
	if err := tx.WithContext(ctx).Create(req).Error; err != nil {
		tb.Fatalf("seed request: %v", err)
	}
	return req
}
