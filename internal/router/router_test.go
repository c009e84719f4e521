package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoloop/internal/middleware"
	"ecoloop/internal/models"
	"ecoloop/internal/services"
	"ecoloop/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t       *testing.T
	engine  *gin.Engine
	svc     *services.Services
	auth    *services.Auth
	plastic string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	st := store.NewMemory()
	deps := services.Deps{Store: st}
	svc := services.New(deps, time.Minute)
	auth := services.NewAuth(deps, "test-secret", time.Hour)

	_, err := svc.Catalog.Seed(context.Background())
	require.NoError(t, err)
	materials, err := svc.Catalog.List(context.Background())
	require.NoError(t, err)
	var plastic string
	for _, m := range materials {
		if m.Type == models.MaterialPlastic {
			plastic = m.MaterialID
		}
	}
	require.NotEmpty(t, plastic)

	engine := New(Options{
		Services:    svc,
		Auth:        auth,
		Store:       st,
		StoreDriver: "memory",
		RateLimit:   middleware.NewRateLimiter(1000, time.Minute),
	})
	return &api{t: t, engine: engine, svc: svc, auth: auth, plastic: plastic}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) register(name string) (token, userID string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "correct horse",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.UserID
}

func (a *api) admin() string {
	a.t.Helper()
	u, err := a.auth.RegisterAdmin(context.Background(), "Root", "root@example.com", "correct horse")
	require.NoError(a.t, err)
	token, err := a.auth.IssueToken(u)
	require.NoError(a.t, err)
	return token
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decodeInto(t, w, &body)
	assert.NotEmpty(t, body.Message)
	return body.Error
}

func (a *api) wastePost(token string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/posts", token, fmt.Sprintf(`{
		"postType": "Waste",
		"title": "Bottles",
		"description": "**clean** PET bottles",
		"location": "Main St 1",
		"waste": {"items": [{"itemName": "PET bottles", "materialID": %q, "sellingPrice": 2.5, "kg": 4}]}
	}`, a.plastic))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var post struct {
		PostID          string `json:"postID"`
		DescriptionHTML string `json:"descriptionHtml"`
	}
	decodeInto(a.t, w, &post)
	assert.Contains(a.t, post.DescriptionHTML, "<strong>clean</strong>")
	return post.PostID
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)
}

func TestPickupLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	giverToken, giverID := a.register("giver")
	collectorToken, collectorID := a.register("collector")
	strangerToken, _ := a.register("stranger")

	postID := a.wastePost(giverToken)

	w := a.do(http.MethodPost, "/api/posts/"+postID+"/pickups", collectorToken, gin.H{
		"pickupTime": "2026-10-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pickup models.Pickup
	decodeInto(t, w, &pickup)
	assert.Equal(t, models.PickupStatusProposed, pickup.Status)
	assert.Equal(t, giverID, pickup.GiverID)
	assert.Equal(t, collectorID, pickup.CollectorID)
	assert.Equal(t, "Main St 1", pickup.PickupLocation)

	w = a.do(http.MethodGet, "/api/pickups/"+pickup.PickupID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", errorKind(t, w))

	w = a.do(http.MethodPost, "/api/pickups/"+pickup.PickupID+"/confirm", giverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var post models.Post
	decodeInto(t, w, &post)
	assert.Equal(t, models.PostStatusScheduled, post.Status)

	complete := gin.H{"finalWaste": gin.H{
		"itemName": "PET bottles", "materialIDs": []string{a.plastic}, "price": 9, "kg": 3.5,
	}}
	w = a.do(http.MethodPost, "/api/pickups/"+pickup.PickupID+"/complete", collectorToken, complete)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeInto(t, w, &pickup)
	assert.Equal(t, models.PickupStatusCompleted, pickup.Status)
	assert.NotNil(t, pickup.CompletedAt)

	w = a.do(http.MethodPost, "/api/pickups/"+pickup.PickupID+"/complete", collectorToken, complete)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidTransition", errorKind(t, w))

	w = a.do(http.MethodGet, "/api/points", collectorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var standing services.Standing
	decodeInto(t, w, &standing)
	assert.Equal(t, services.PointsPickupCompletion, standing.Balance)

	w = a.do(http.MethodGet, "/api/points", giverToken, nil)
	decodeInto(t, w, &standing)
	assert.Equal(t, services.PointsPostCreation+services.PointsPickupCompletion, standing.Balance)

	w = a.do(http.MethodGet, "/api/pickups?role=collector", collectorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Pickups []models.Pickup `json:"pickups"`
	}
	decodeInto(t, w, &list)
	assert.Len(t, list.Pickups, 1)
}

func TestCreatePostValidation(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("giver")

	tests := []struct {
		name string
		body string
	}{
		{"waste item without sellingPrice", fmt.Sprintf(`{"postType":"Waste","title":"Bottles","location":"x",
			"waste":{"items":[{"itemName":"PET","materialID":%q,"kg":1}]}}`, a.plastic)},
		{"payload for another variant", `{"postType":"Forum","title":"Hi","waste":{"items":[]}}`},
		{"unknown material", `{"postType":"Waste","title":"Bottles","location":"x",
			"waste":{"items":[{"itemName":"PET","materialID":"nope","sellingPrice":1,"kg":1}]}}`},
		{"malformed json", `{"postType":`},
		{"missing postType", `{"title":"Hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/posts", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "ValidationFailed", errorKind(t, w))
		})
	}
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("giver")

	w := a.do(http.MethodPost, "/api/posts", "", gin.H{"postType": "Forum"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "giver@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorKind(t, w))

	w = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "giver@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "again", "email": "giver@example.com", "password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/materials", token, gin.H{"type": "Glass"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMaterialPricing(t *testing.T) {
	a := newAPI(t)
	admin := a.admin()

	path := "/api/materials/" + a.plastic + "/prices"
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, path, admin, gin.H{"price": 1.0}).Code)
	w := a.do(http.MethodPost, path, admin, gin.H{"price": 2.0, "date": "2026-10-01T00:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var m models.Material
	decodeInto(t, w, &m)
	assert.InDelta(t, 1.5, m.AveragePricePerKg, 1e-9)
	assert.Len(t, m.PricingHistory, 2)

	w = a.do(http.MethodPost, path, admin, gin.H{"price": -1.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, path, admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/materials", admin, gin.H{"type": "Plastic"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodGet, "/api/materials/"+a.plastic, "", nil)
	decodeInto(t, w, &m)
	assert.InDelta(t, 1.5, m.AveragePricePerKg, 1e-9)
}

func TestConversationAndNotifications(t *testing.T) {
	a := newAPI(t)
	giverToken, _ := a.register("giver")
	collectorToken, _ := a.register("collector")
	postID := a.wastePost(giverToken)

	w := a.do(http.MethodPost, "/api/conversations", collectorToken, gin.H{"postID": postID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conv models.Conversation
	decodeInto(t, w, &conv)

	w = a.do(http.MethodPost, "/api/conversations/"+conv.ConversationID+"/messages", collectorToken, gin.H{"body": "Still available?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/conversations/"+conv.ConversationID+"/messages", collectorToken, gin.H{"body": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/conversations/"+conv.ConversationID+"/messages", giverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs struct {
		Messages []models.Message `json:"messages"`
	}
	decodeInto(t, w, &msgs)
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, "Still available?", msgs.Messages[0].Body)

	w = a.do(http.MethodPost, "/api/conversations/"+conv.ConversationID+"/read", giverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":1}`, w.Body.String())

	// the default notifier discards, so the inbox stays empty
	w = a.do(http.MethodGet, "/api/notifications", giverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}
	decodeInto(t, w, &inbox)
	assert.Empty(t, inbox.Notifications)
	assert.Zero(t, inbox.UnreadCount)

	w = a.do(http.MethodPost, "/api/notifications/missing/read", giverToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsRenderMarkdown(t *testing.T) {
	a := newAPI(t)
	giverToken, _ := a.register("giver")
	otherToken, _ := a.register("other")
	postID := a.wastePost(giverToken)

	w := a.do(http.MethodPost, "/api/posts/"+postID+"/comments", otherToken, gin.H{"body": "nice <script>alert(1)</script> _work_"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Comments []struct {
			BodyHTML string `json:"bodyHtml"`
		} `json:"comments"`
	}
	decodeInto(t, w, &resp)
	require.Len(t, resp.Comments, 1)
	assert.Contains(t, resp.Comments[0].BodyHTML, "<em>work</em>")
	assert.NotContains(t, resp.Comments[0].BodyHTML, "<script>")

	w = a.do(http.MethodPost, "/api/posts/"+postID+"/support", otherToken, gin.H{"message": "count me in"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteErrorPrecedence(t *testing.T) {
	a := newAPI(t)
	giverToken, _ := a.register("giver")
	collectorToken, _ := a.register("collector")
	strangerToken, _ := a.register("stranger")
	postID := a.wastePost(giverToken)

	w := a.do(http.MethodPost, "/api/posts/"+postID+"/pickups", collectorToken, gin.H{
		"pickupTime": "2026-10-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pickup models.Pickup
	decodeInto(t, w, &pickup)
	completePath := "/api/pickups/" + pickup.PickupID + "/complete"

	tests := []struct {
		name   string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"missing pickup", "/api/pickups/nope/complete", collectorToken, nil, http.StatusNotFound, "NotFound"},
		{"not a party", completePath, strangerToken, nil, http.StatusForbidden, "Forbidden"},
		{"not confirmed yet", completePath, collectorToken, "{", http.StatusConflict, "InvalidTransition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.kind, errorKind(t, w))
		})
	}

	w = a.do(http.MethodPost, "/api/pickups/"+pickup.PickupID+"/confirm", giverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for name, body := range map[string]any{
		"empty body":     nil,
		"malformed body": "{",
		"missing price":  fmt.Sprintf(`{"finalWaste": {"itemName": "PET", "materialIDs": [%q], "kg": 1}}`, a.plastic),
	} {
		t.Run(name, func(t *testing.T) {
			w := a.do(http.MethodPost, completePath, collectorToken, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "ValidationFailed", errorKind(t, w))
		})
	}

	w = a.do(http.MethodGet, "/api/pickups/"+pickup.PickupID, collectorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeInto(t, w, &pickup)
	assert.Equal(t, models.PickupStatusConfirmed, pickup.Status)
}
