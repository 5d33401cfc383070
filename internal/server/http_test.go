package server

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/biz/biztest"
	"github.com/orphancare/charity-service/internal/biz/mock"
	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/service"
	"github.com/orphancare/charity-service/pkg/auth"
)

const testSecret = "server-test-secret"

type testServer struct {
	t     *testing.T
	h     nethttp.Handler
	store *biztest.Store
}

func newTestServer(t *testing.T) *testServer {
	ctrl := gomock.NewController(t)
	cache := mock.NewMockSponsorshipCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, int64(0), nil).AnyTimes()
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache.EXPECT().Evict(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	events := mock.NewMockEventPublisher(ctrl)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	store := biztest.NewStore()
	uc := biz.NewSponsorshipUsecase(store.Orphans(), store.Sponsorships(), store, cache, events, nil, log.DefaultLogger)
	srv := NewHTTPServer(&conf.Server{}, &conf.Auth{JWTSecret: testSecret}, service.NewSponsorshipService(uc, log.DefaultLogger), log.DefaultLogger)
	return &testServer{t: t, h: srv, store: store}
}

func (s *testServer) token(id int64, role auth.Role) string {
	tok, err := auth.Sign(testSecret, auth.Claims{ID: id, Role: role}, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPServer_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(nethttp.MethodPost, "/sponsorship", "", map[string]any{"orphanId": 1, "frequency": "monthly", "amount": 5})
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	rec = s.do(nethttp.MethodGet, "/healthz", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = s.do(nethttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestHTTPServer_SponsorshipLifecycle(t *testing.T) {
	s := newTestServer(t)
	orphanID := s.store.AddOrphan("Amina")
	donor := s.token(7, auth.RoleDonor)
	other := s.token(8, auth.RoleDonor)
	admin := s.token(1, auth.RoleAdmin)

	create := map[string]any{"orphanId": orphanID, "frequency": "monthly", "amount": 25.5}

	rec := s.do(nethttp.MethodPost, "/sponsorship", admin, create)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)

	rec = s.do(nethttp.MethodPost, "/sponsorship", donor, create)
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	var created service.SponsorshipReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Sponsorship created successfully for Amina", created.Message)
	assert.Equal(t, biz.StatusActive, created.Sponsorship.Status)
	path := "/sponsorship/" + strconv.FormatInt(created.Sponsorship.ID, 10)

	rec = s.do(nethttp.MethodPost, "/sponsorship", other, create)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec = s.do(nethttp.MethodPost, "/sponsorship", donor, map[string]any{"frequency": "monthly"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = s.do(nethttp.MethodGet, path, other, nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = s.do(nethttp.MethodPut, path, donor, map[string]any{"status": "ended"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = s.do(nethttp.MethodPut, path, other, map[string]any{"sponsorshipId": created.Sponsorship.ID, "status": "ended"})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	rec = s.do(nethttp.MethodPut, path, donor, map[string]any{"sponsorshipId": created.Sponsorship.ID + 100, "status": "ended"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = s.do(nethttp.MethodGet, "/sponsorship", donor, nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)

	rec = s.do(nethttp.MethodGet, "/sponsorship?page=1&limit=5", admin, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Items      []biz.Sponsorship `json:"items"`
		TotalItems int64             `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.TotalItems)

	rec = s.do(nethttp.MethodPut, path, donor, map[string]any{"sponsorshipId": created.Sponsorship.ID, "status": "ended"})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	o, _ := s.store.Orphan(orphanID)
	assert.True(t, o.IsAvailableForSponsorship)

	rec = s.do(nethttp.MethodDelete, path, admin, nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)

	rec = s.do(nethttp.MethodDelete, path, donor, nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = s.do(nethttp.MethodGet, path, donor, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}
