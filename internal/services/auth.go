package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*types.Learner, string, error)
	Login(ctx context.Context, email, password string) (*types.Learner, string, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	learnerRepo  repos.LearnerRepo
	profiles     *ProfileService
	jwtSecretKey []byte
	tokenTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	learnerRepo repos.LearnerRepo,
	profiles *ProfileService,
	jwtSecretKey string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		learnerRepo:  learnerRepo,
		profiles:     profiles,
		jwtSecretKey: []byte(jwtSecretKey),
		tokenTTL:     tokenTTL,
	}
}

func (as *authService) Register(ctx context.Context, email, password string) (*types.Learner, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email")
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := as.learnerRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup learner: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	learner, err := as.learnerRepo.Create(ctx, nil, &types.Learner{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, "", fmt.Errorf("create learner: %w", err)
	}
	as.log.Info("Learner registered", "learner_id", learner.ID)

	if _, err := as.profiles.appendSnapshot(ctx, learner.ID, defaultCognition, defaultAffect, defaultBehavior, types.ProfileSourceSystem); err != nil {
		return nil, "", fmt.Errorf("seed initial snapshot: %w", err)
	}

	token, err := as.generateToken(learner)
	if err != nil {
		return nil, "", err
	}
	return learner, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.Learner, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	learner, err := as.learnerRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup learner: %w", err)
	}
	if learner == nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(learner.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token, err := as.generateToken(learner)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("Learner logged in", "learner_id", learner.ID)
	return learner, token, nil
}

func (as *authService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("token missing subject: %w", err)
	}
	learnerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return learnerID, nil
}

func (as *authService) generateToken(learner *types.Learner) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": learner.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(as.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(as.jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
