package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/types"
)

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.Learner{}, &types.ProfileSnapshot{}, &types.CalibrationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	learnerRepo := repos.NewLearnerRepo(gdb, log)
	profiles := NewProfileService(
		gdb, log,
		learnerRepo,
		repos.NewProfileSnapshotRepo(gdb, log),
		repos.NewCalibrationRecordRepo(gdb, log),
		nil,
		NewLearnerLocks(),
	)
	return NewAuthService(gdb, log, learnerRepo, profiles, "test-secret", time.Hour)
}

func TestRegisterLoginParse(t *testing.T) {
	s := newTestAuthService(t)
	ctx := context.Background()

	learner, token, err := s.Register(ctx, "Grace@Example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if learner.Email != "grace@example.com" {
		t.Errorf("email = %q, want lowercased", learner.Email)
	}
	if token == "" {
		t.Fatal("expected a token from registration")
	}

	parsed, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed != learner.ID {
		t.Errorf("token subject = %s, want %s", parsed, learner.ID)
	}

	_, loginToken, err := s.Login(ctx, "grace@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginToken == "" {
		t.Error("expected a token from login")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "not-an-email", "long-enough-pass"); err == nil {
		t.Error("expected rejection for malformed email")
	}
	if _, _, err := s.Register(ctx, "short@example.com", "tiny"); err == nil {
		t.Error("expected rejection for short password")
	}

	if _, _, err := s.Register(ctx, "dup@example.com", "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Register(ctx, "dup@example.com", "correct-horse"); err == nil {
		t.Error("expected rejection for duplicate email")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "heidi@example.com", "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "heidi@example.com", "wrong-horse"); err == nil {
		t.Error("expected rejection for wrong password")
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "whatever"); err == nil {
		t.Error("expected rejection for unknown email")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	s := newTestAuthService(t)
	if _, err := s.ParseToken("not.a.jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
