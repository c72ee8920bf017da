package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/config"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/middleware"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/lshigami/pblagro/internal/testutil"
)

type stubSchedules struct {
	service.ScheduleService
	sweepErr error
}

func (s *stubSchedules) Sweep(context.Context) (*dto.SweepResponse, error) {
	if s.sweepErr != nil {
		return nil, s.sweepErr
	}
	return &dto.SweepResponse{Evaluated: 2, Released: 1}, nil
}

func (s *stubSchedules) ForceRelease(_ context.Context, id uint) (*dto.ScheduleResponse, error) {
	if id != 1 {
		return nil, service.ErrScheduleNotFound
	}
	return &dto.ScheduleResponse{ID: 1, Released: true, Status: string(release.StatusReleased)}, nil
}

func (s *stubSchedules) Create(_ context.Context, req dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	if req.ReleaseAt == "ontem" {
		return nil, service.ErrInvalidReleaseTime
	}
	return &dto.ScheduleResponse{ID: 3, ContentUnitID: req.ContentUnitID, Cohorts: req.Cohorts}, nil
}

type stubChallenges struct {
	service.ChallengeService
}

func (stubChallenges) TriggerGeneration(_ context.Context, id string) (bool, error) {
	if id == "incompleto" {
		return false, service.ErrProfileIncomplete
	}
	return true, nil
}

func newRouter(t *testing.T, schedules *stubSchedules) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.SeedLearner(t, db, model.Learner{NationalID: "900", Role: model.RoleAdmin})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "111", Role: model.RoleStudent})

	cfg := &config.Config{Auth: config.Auth{JWTSecret: "test-secret", SessionTTL: time.Hour, CookieName: "pbl_session"}}
	auth := middleware.NewAuth(cfg, repository.NewLearnerRepository(db))
	ctrl := NewAdminController(schedules, stubChallenges{})

	r := gin.New()
	r.Use(auth.Identify())
	admin := r.Group("/api/v1/admin", auth.RequireAdmin())
	admin.POST("/schedules", ctrl.CreateSchedule)
	admin.POST("/schedules/:id/release", ctrl.ReleaseSchedule)
	admin.POST("/schedules/sweep", ctrl.Sweep)
	admin.POST("/learners/:national_id/generate", ctrl.GenerateForLearner)
	return r
}

func call(r *gin.Engine, method, path, body, cpf string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cpf != "" {
		req.Header.Set("X-User-CPF", cpf)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	r := newRouter(t, &stubSchedules{})
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/sweep", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/sweep", "", "111"); w.Code != http.StatusForbidden {
		t.Fatalf("student: expected 403, got %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/sweep", "", "900"); w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}
}

func TestSweep_InProgressIsConflict(t *testing.T) {
	r := newRouter(t, &stubSchedules{sweepErr: release.ErrSweepInProgress})
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/sweep", "", "900"); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestCreateSchedule(t *testing.T) {
	r := newRouter(t, &stubSchedules{})

	w := call(r, http.MethodPost, "/api/v1/admin/schedules", `{"content_unit_id":4,"cohorts":["T1"],"release_at":"2025-03-10T08:00:00"}`, "900")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules", `{"content_unit_id":4,"cohorts":[],"release_at":"2025-03-10"}`, "900"); w.Code != http.StatusBadRequest {
		t.Fatalf("empty cohorts: expected 400, got %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules", `{"content_unit_id":4,"cohorts":["T1"],"release_at":"ontem"}`, "900"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad timestamp: expected 400, got %d", w.Code)
	}
}

func TestReleaseSchedule(t *testing.T) {
	r := newRouter(t, &stubSchedules{})
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/1/release", "", "900"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/2/release", "", "900"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/schedules/abc/release", "", "900"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerateForLearner(t *testing.T) {
	r := newRouter(t, &stubSchedules{})
	w := call(r, http.MethodPost, "/api/v1/admin/learners/111/generate", "", "900")
	if w.Code != http.StatusAccepted || !strings.Contains(w.Body.String(), `"admitted":true`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodPost, "/api/v1/admin/learners/incompleto/generate", "", "900"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
