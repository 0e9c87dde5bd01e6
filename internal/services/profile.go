package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclients "github.com/yungbote/cognisync-backend/internal/clients/redis"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/types"
)

const (
	defaultCognition = 50
	defaultAffect    = 50
	defaultBehavior  = 50
)

// ProfileService is the ledger over the append-only snapshot history: it
// answers "current profile", applies bounded deltas, records user overrides
// with calibration records, and derives recent-change trends.
type ProfileService struct {
	db              *gorm.DB
	log             *logger.Logger
	learnerRepo     repos.LearnerRepo
	snapshotRepo    repos.ProfileSnapshotRepo
	calibrationRepo repos.CalibrationRecordRepo
	cache           *redisclients.ProfileCache
	locks           *LearnerLocks
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	learnerRepo repos.LearnerRepo,
	snapshotRepo repos.ProfileSnapshotRepo,
	calibrationRepo repos.CalibrationRecordRepo,
	cache *redisclients.ProfileCache,
	locks *LearnerLocks,
) *ProfileService {
	return &ProfileService{
		db:              db,
		log:             log.With("service", "ProfileService"),
		learnerRepo:     learnerRepo,
		snapshotRepo:    snapshotRepo,
		calibrationRepo: calibrationRepo,
		cache:           cache,
		locks:           locks,
	}
}

// GetOrCreateLearner resolves a free-form learner reference, creating the
// learner (with a neutral seed snapshot) on first contact.
func (s *ProfileService) GetOrCreateLearner(ctx context.Context, ref string) (*types.Learner, error) {
	email := strings.TrimSpace(ref)
	if email == "" {
		return nil, fmt.Errorf("learner reference is empty")
	}
	if !strings.Contains(email, "@") {
		email = email + "@cognisync.local"
	}

	learner, err := s.learnerRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("lookup learner: %w", err)
	}
	if learner != nil {
		return learner, nil
	}

	learner, err = s.learnerRepo.Create(ctx, nil, &types.Learner{Email: email})
	if err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}
	s.log.Info("Created new learner", "learner_id", learner.ID)

	if _, err := s.appendSnapshot(ctx, learner.ID, defaultCognition, defaultAffect, defaultBehavior, types.ProfileSourceSystem); err != nil {
		return nil, fmt.Errorf("seed initial snapshot: %w", err)
	}
	return learner, nil
}

// ResolveLearner accepts either a learner id or the same free-form reference
// the chat surface uses. Ids resolve to the existing learner; anything else
// goes through GetOrCreateLearner so every endpoint agrees on identity.
func (s *ProfileService) ResolveLearner(ctx context.Context, ref string) (*types.Learner, error) {
	if id, err := uuid.Parse(strings.TrimSpace(ref)); err == nil {
		learner, err := s.learnerRepo.GetByID(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("lookup learner: %w", err)
		}
		if learner != nil {
			return learner, nil
		}
	}
	return s.GetOrCreateLearner(ctx, ref)
}

// Current returns the latest snapshot for the source, or the manufactured
// neutral default when the learner has no history.
func (s *ProfileService) Current(ctx context.Context, learnerID uuid.UUID, source types.ProfileSource) (types.Profile, error) {
	if source == types.ProfileSourceSystem {
		if cached, ok := s.cache.Get(ctx, learnerID.String()); ok {
			return *cached, nil
		}
	}

	snapshot, err := s.snapshotRepo.GetLatest(ctx, nil, learnerID, source)
	if err != nil {
		return types.Profile{}, fmt.Errorf("load latest snapshot: %w", err)
	}
	if snapshot == nil {
		return types.Profile{
			Cognition:  defaultCognition,
			Affect:     defaultAffect,
			Behavior:   defaultBehavior,
			LastUpdate: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	profile := snapshotToProfile(snapshot)
	if source == types.ProfileSourceSystem {
		s.cache.Set(ctx, learnerID.String(), profile)
	}
	return profile, nil
}

// ApplyDelta reads the current system profile, applies the (pre-clamped)
// delta with [0,100] clamping per axis, and appends a new system snapshot.
// The read-then-append is serialized per learner.
func (s *ProfileService) ApplyDelta(ctx context.Context, learnerID uuid.UUID, delta types.ProfileDelta) (types.Profile, error) {
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	current, err := s.Current(ctx, learnerID, types.ProfileSourceSystem)
	if err != nil {
		return types.Profile{}, err
	}

	dc := clampInt(delta.Cognition, -10, 10)
	da := clampInt(delta.Affect, -10, 10)
	dbv := clampInt(delta.Behavior, -10, 10)

	newCognition := clampInt(current.Cognition+dc, 0, 100)
	newAffect := clampInt(current.Affect+da, 0, 100)
	newBehavior := clampInt(current.Behavior+dbv, 0, 100)

	s.log.Info("Applying profile delta",
		"learner_id", learnerID,
		"cognition", fmt.Sprintf("%d%+d=%d", current.Cognition, dc, newCognition),
		"affect", fmt.Sprintf("%d%+d=%d", current.Affect, da, newAffect),
		"behavior", fmt.Sprintf("%d%+d=%d", current.Behavior, dbv, newBehavior),
	)

	snapshot, err := s.appendSnapshot(ctx, learnerID, newCognition, newAffect, newBehavior, types.ProfileSourceSystem)
	if err != nil {
		return types.Profile{}, fmt.Errorf("append snapshot: %w", err)
	}
	return snapshotToProfile(snapshot), nil
}

// ApplyUserOverride writes a user-sourced snapshot and one calibration
// record per dimension. Axes the user did not supply default to the
// prevailing system values.
func (s *ProfileService) ApplyUserOverride(ctx context.Context, learnerID uuid.UUID, cognition, affect, behavior *int, comment *string, trustRating *int) (types.Profile, error) {
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	system, err := s.Current(ctx, learnerID, types.ProfileSourceSystem)
	if err != nil {
		return types.Profile{}, err
	}

	userCognition := system.Cognition
	if cognition != nil {
		userCognition = clampInt(*cognition, 0, 100)
	}
	userAffect := system.Affect
	if affect != nil {
		userAffect = clampInt(*affect, 0, 100)
	}
	userBehavior := system.Behavior
	if behavior != nil {
		userBehavior = clampInt(*behavior, 0, 100)
	}

	snapshot, err := s.appendSnapshot(ctx, learnerID, userCognition, userAffect, userBehavior, types.ProfileSourceUser)
	if err != nil {
		return types.Profile{}, fmt.Errorf("append user snapshot: %w", err)
	}

	now := time.Now().UTC()
	records := []*types.CalibrationRecord{
		calibration(learnerID, types.DimensionCognition, system.Cognition, userCognition, comment, trustRating, now),
		calibration(learnerID, types.DimensionAffect, system.Affect, userAffect, comment, trustRating, now),
		calibration(learnerID, types.DimensionBehavior, system.Behavior, userBehavior, comment, trustRating, now),
	}
	if _, err := s.calibrationRepo.Create(ctx, nil, records); err != nil {
		return types.Profile{}, fmt.Errorf("record calibration: %w", err)
	}

	for _, rec := range records {
		s.log.Info("Calibration recorded",
			"learner_id", learnerID,
			"dimension", rec.Dimension,
			"system", rec.SystemValue,
			"user", rec.UserValue,
			"conflict", rec.ConflictLevel,
		)
	}
	return snapshotToProfile(snapshot), nil
}

// RecentChanges derives per-axis movements between consecutive snapshots.
// Axes that did not move between two snapshots are omitted.
func (s *ProfileService) RecentChanges(ctx context.Context, learnerID uuid.UUID, limit int) ([]types.ProfileChange, error) {
	if limit <= 0 {
		limit = 5
	}
	snapshots, err := s.snapshotRepo.GetRecent(ctx, nil, learnerID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("load snapshot history: %w", err)
	}
	if len(snapshots) < 2 {
		return []types.ProfileChange{}, nil
	}

	changes := make([]types.ProfileChange, 0, (len(snapshots)-1)*3)
	for i := 0; i < len(snapshots)-1; i++ {
		current, previous := snapshots[i], snapshots[i+1]
		ts := current.CreatedAt.UTC().Format(time.RFC3339)
		if d := current.Cognition - previous.Cognition; d != 0 {
			changes = append(changes, types.ProfileChange{Dimension: types.DimensionCognition, Change: d, Timestamp: ts, Trend: trend(d)})
		}
		if d := current.Affect - previous.Affect; d != 0 {
			changes = append(changes, types.ProfileChange{Dimension: types.DimensionAffect, Change: d, Timestamp: ts, Trend: trend(d)})
		}
		if d := current.Behavior - previous.Behavior; d != 0 {
			changes = append(changes, types.ProfileChange{Dimension: types.DimensionBehavior, Change: d, Timestamp: ts, Trend: trend(d)})
		}
	}
	return changes, nil
}

func (s *ProfileService) appendSnapshot(ctx context.Context, learnerID uuid.UUID, cognition, affect, behavior int, source types.ProfileSource) (*types.ProfileSnapshot, error) {
	snapshot := &types.ProfileSnapshot{
		LearnerID: learnerID,
		Cognition: cognition,
		Affect:    affect,
		Behavior:  behavior,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.snapshotRepo.Create(ctx, nil, snapshot)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, learnerID.String())
	if source == types.ProfileSourceSystem {
		s.cache.Set(ctx, learnerID.String(), snapshotToProfile(created))
	}
	return created, nil
}

func calibration(learnerID uuid.UUID, dim types.Dimension, systemValue, userValue int, comment *string, trustRating *int, ts time.Time) *types.CalibrationRecord {
	return &types.CalibrationRecord{
		LearnerID:     learnerID,
		Dimension:     dim,
		SystemValue:   systemValue,
		UserValue:     userValue,
		ConflictLevel: conflictLevel(systemValue, userValue),
		Comment:       comment,
		TrustRating:   trustRating,
		Timestamp:     ts,
	}
}

// conflictLevel classifies the disagreement between a system value and a
// user-asserted value: diff < 15 low, 15..30 medium, > 30 high.
func conflictLevel(systemValue, userValue int) types.ConflictLevel {
	diff := systemValue - userValue
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 15:
		return types.ConflictLow
	case diff <= 30:
		return types.ConflictMedium
	default:
		return types.ConflictHigh
	}
}

func snapshotToProfile(snapshot *types.ProfileSnapshot) types.Profile {
	return types.Profile{
		Cognition:  snapshot.Cognition,
		Affect:     snapshot.Affect,
		Behavior:   snapshot.Behavior,
		LastUpdate: snapshot.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trend(change int) string {
	if change > 0 {
		return "up"
	}
	return "down"
}
