package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taveron/agenda-backend/internal/presenter"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/services"
	"github.com/taveron/agenda-backend/internal/types"
)

// stubContactService lets handler tests script the service layer. Only the
// methods a test exercises need a func assigned.
type stubContactService struct {
	listAll func(f repos.ContactFilter) ([]types.Contact, error)
}

func (s *stubContactService) Create(ctx context.Context, in services.ContactInput) (*types.Contact, error) {
	return nil, nil
}

func (s *stubContactService) Get(ctx context.Context, id uuid.UUID) (*types.Contact, error) {
	return nil, nil
}

func (s *stubContactService) Update(ctx context.Context, id uuid.UUID, in services.ContactInput) (*types.Contact, error) {
	return nil, nil
}

func (s *stubContactService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubContactService) List(ctx context.Context, f repos.ContactFilter) ([]types.Contact, int64, error) {
	return nil, 0, nil
}

func (s *stubContactService) ListAll(ctx context.Context, f repos.ContactFilter) ([]types.Contact, error) {
	return s.listAll(f)
}

func (s *stubContactService) GroupByRelationshipType(ctx context.Context, p presenter.Projection) (map[string]services.TypeGroup, error) {
	return nil, nil
}

func (s *stubContactService) Statistics(ctx context.Context) (*services.ContactStatistics, error) {
	return nil, nil
}

func (s *stubContactService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*types.Contact, string, error) {
	return nil, "", nil
}

func searchRequest(t *testing.T, url string, stub *stubContactService) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", url, nil)
	NewContactHandler(stub).Search(c)
	return w
}

func TestContactHandler_Search_NoCriteriaReturnsWholeCollection(t *testing.T) {
	var captured repos.ContactFilter
	stub := &stubContactService{
		listAll: func(f repos.ContactFilter) ([]types.Contact, error) {
			captured = f
			return []types.Contact{{ID: uuid.New(), Nombre: "Ana"}}, nil
		},
	}

	w := searchRequest(t, "http://example.com/api/contactos/buscar/", stub)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", captured.Term)
	require.Contains(t, w.Body.String(), "Ana")
}

func TestContactHandler_Search_PassesQueryAndFilters(t *testing.T) {
	var captured repos.ContactFilter
	stub := &stubContactService{
		listAll: func(f repos.ContactFilter) ([]types.Contact, error) {
			captured = f
			return nil, nil
		},
	}

	w := searchRequest(t, "http://example.com/api/contactos/buscar/?q=ana&favorito=true", stub)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ana", captured.Term)
	require.NotNil(t, captured.Favorito)
	require.True(t, *captured.Favorito)
}
