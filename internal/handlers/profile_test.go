package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/services"
	"github.com/yungbote/cognisync-backend/internal/types"
)

func newProfileTestRouter(t *testing.T) (*gin.Engine, *services.ProfileService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	profileService := services.NewProfileService(
		gdb, log,
		repos.NewLearnerRepo(gdb, log),
		repos.NewProfileSnapshotRepo(gdb, log),
		repos.NewCalibrationRecordRepo(gdb, log),
		nil,
		services.NewLearnerLocks(),
	)
	handler := NewProfileHandler(log, profileService)

	router := gin.New()
	router.GET("/api/profile/:learnerId", handler.Get)
	router.POST("/api/profile/:learnerId/override", handler.Override)
	router.GET("/api/profile/:learnerId/changes", handler.Changes)
	return router, profileService
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// The profile endpoints take the same free-form learner reference as the
// chat endpoint, not just a uuid.
func TestProfileGet_FreeFormRef(t *testing.T) {
	router, _ := newProfileTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/profile/user123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for free-form ref; body: %s", rec.Code, rec.Body.String())
	}

	var profile types.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Cognition != 50 || profile.Affect != 50 || profile.Behavior != 50 {
		t.Errorf("profile = %+v, want seeded 50/50/50", profile)
	}
}

func TestProfileOverride_SameIdentityAsChatRef(t *testing.T) {
	router, profileService := newProfileTestRouter(t)

	// Same ref a chat client would use.
	learner, err := profileService.GetOrCreateLearner(t.Context(), "user123")
	if err != nil {
		t.Fatalf("GetOrCreateLearner: %v", err)
	}

	rec := doRequest(t, router, http.MethodPost, "/api/profile/user123/override", `{"cognition": 75}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	user, err := profileService.Current(t.Context(), learner.ID, types.ProfileSourceUser)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if user.Cognition != 75 {
		t.Errorf("override landed on a different learner: user cognition = %d, want 75", user.Cognition)
	}
}

func TestProfileGet_UUIDRefResolvesExistingLearner(t *testing.T) {
	router, profileService := newProfileTestRouter(t)

	learner, err := profileService.GetOrCreateLearner(t.Context(), "user123")
	if err != nil {
		t.Fatalf("GetOrCreateLearner: %v", err)
	}
	if _, err := profileService.ApplyDelta(t.Context(), learner.ID, types.ProfileDelta{Cognition: 7}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/profile/"+learner.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var profile types.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Cognition != 57 {
		t.Errorf("cognition = %d, want 57 (uuid ref must hit the same learner)", profile.Cognition)
	}
}

func TestProfileChanges_FreeFormRef(t *testing.T) {
	router, profileService := newProfileTestRouter(t)

	learner, err := profileService.GetOrCreateLearner(t.Context(), "user123")
	if err != nil {
		t.Fatalf("GetOrCreateLearner: %v", err)
	}
	if _, err := profileService.ApplyDelta(t.Context(), learner.ID, types.ProfileDelta{Affect: -3}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/profile/user123/changes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Changes []types.ProfileChange `json:"changes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode changes: %v", err)
	}
	if len(payload.Changes) != 1 || payload.Changes[0].Dimension != types.DimensionAffect {
		t.Errorf("changes = %+v, want one affect change", payload.Changes)
	}
}
