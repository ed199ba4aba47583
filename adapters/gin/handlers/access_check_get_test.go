package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/learnkit/access"
	"github.com/open-rails/learnkit/entitlements"
	learntest "github.com/open-rails/learnkit/testing"
)

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func setupRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *learntest.Store, *learntest.Hierarchy, *access.Unlocker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := learntest.NewStore()
	content := learntest.NewHierarchy()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ulk := access.NewUnlocker(store, content, learntest.NewTracker(), learntest.NewBadges(), nil, nil, log)
	chk := access.NewChecker(store, content, nil, ulk, time.Minute, log)

	r := gin.New()
	authStub := func(c *gin.Context) { c.Set("auth.user_id", userID.String()) }
	r.GET("/paths/:path_id/levels/:level_id/access", authStub, HandleAccessCheckGET(chk, nil))
	r.POST("/levels/complete", authStub, HandleLevelCompletePOST(ulk, nil))
	return r, store, content, ulk
}

func TestHandleAccessCheckGET(t *testing.T) {
	userID := uuid.New()
	r, store, content, _ := setupRouter(t, userID)

	categoryID := uuid.New()
	pathID := content.AddPath(categoryID, 2)
	levels := content.LevelIDs(pathID)
	if _, err := store.Create(context.Background(), entitlements.Grant{
		UserID: userID, CategoryID: categoryID, AccessType: entitlements.AccessPurchase,
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// First level: granted via the free-first-level rule.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/paths/"+pathID.String()+"/levels/"+levels[0].String()+"/access", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var d access.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Granted || d.Source != access.SourceFreeFirstLevel {
		t.Fatalf("expected free-first-level grant, got %+v", d)
	}

	// Second level: denied as data, still a 200.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/paths/"+pathID.String()+"/levels/"+levels[1].String()+"/access", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Granted || d.Reason != access.ReasonLevelNotUnlocked {
		t.Fatalf("expected level-not-unlocked denial, got %+v", d)
	}
}

func TestHandleAccessCheckGET_BadID(t *testing.T) {
	r, _, _, _ := setupRouter(t, uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paths/not-a-uuid/levels/"+uuid.NewString()+"/access", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleLevelCompletePOST(t *testing.T) {
	userID := uuid.New()
	r, store, content, _ := setupRouter(t, userID)

	categoryID := uuid.New()
	pathID := content.AddPath(categoryID, 2)
	levels := content.LevelIDs(pathID)
	if _, err := store.Create(context.Background(), entitlements.Grant{
		UserID: userID, CategoryID: categoryID, AccessType: entitlements.AccessFree,
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/levels/complete",
		jsonBody(t, map[string]string{"level_id": levels[0].String()}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		NextLevelID *string `json:"next_level_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.NextLevelID == nil || *resp.NextLevelID != levels[1].String() {
		t.Fatalf("expected next level %s, got %v", levels[1], resp.NextLevelID)
	}
}
