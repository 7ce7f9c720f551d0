package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/render"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Render(ctx context.Context, in service.ExportInput) (*service.ExportOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportOutput), args.Error(1)
}

func (m *MockExportService) Publish(ctx context.Context, in service.ExportInput) (*service.PublishOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishOutput), args.Error(1)
}

type MockAuthorService struct {
	mock.Mock
}

func (m *MockAuthorService) Create(ctx context.Context, in service.CreateAuthorInput) (*service.CreateAuthorOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateAuthorOutput), args.Error(1)
}

func (m *MockAuthorService) Get(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Author), args.Error(1)
}

func (m *MockAuthorService) Authenticate(ctx context.Context, rawToken string) (*model.Author, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Author), args.Error(1)
}

func (m *MockAuthorService) Ensure(ctx context.Context, token, name string) (*model.Author, error) {
	args := m.Called(ctx, token, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Author), args.Error(1)
}

func TestExportHandler_ExportProject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serializer.SetLogger(zap.NewNop())

	projectID := uuid.New()

	tests := []struct {
		name           string
		query          string
		setup          func(*MockExportService)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:  "svg",
			query: "?format=svg",
			setup: func(svc *MockExportService) {
				svc.On("Render", mock.Anything, service.ExportInput{ProjectID: projectID, Format: "svg"}).
					Return(&service.ExportOutput{
						Format:      render.FormatSVG,
						Filename:    "sunset.svg",
						ContentType: "image/svg+xml",
						Data:        []byte("<svg/>"),
					}, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
				assert.Equal(t, `attachment; filename="sunset.svg"`, rec.Header().Get("Content-Disposition"))
				assert.Equal(t, "<svg/>", rec.Body.String())
			},
		},
		{
			name:           "unknown format",
			query:          "?format=gif",
			setup:          func(*MockExportService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "format not offered for canvas",
			query: "?format=wav",
			setup: func(svc *MockExportService) {
				svc.On("Render", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: Mosaic has no wav export", service.ErrUnsupportedFormat))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing project",
			setup: func(svc *MockExportService) {
				svc.On("Render", mock.Anything, service.ExportInput{ProjectID: projectID}).Return(nil, service.ErrProjectNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockExportService{}
			tt.setup(svc)
			h := NewExportHandler(svc)

			r := gin.New()
			r.GET("/projects/:project_id/export", h.ExportProject)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/"+projectID.String()+"/export"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestExportHandler_PublishExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serializer.SetLogger(zap.NewNop())

	projectID := uuid.New()
	svc := &MockExportService{}
	svc.On("Publish", mock.Anything, service.ExportInput{ProjectID: projectID, Format: "png"}).
		Return(&service.PublishOutput{Filename: "sunset.png", URL: "https://s3.local/x"}, nil).Once()
	svc.On("Publish", mock.Anything, service.ExportInput{ProjectID: projectID, Format: "png"}).
		Return(nil, service.ErrExportStorageDisabled).Once()

	h := NewExportHandler(svc)
	r := gin.New()
	r.POST("/projects/:project_id/export/publish", h.PublishExport)

	target := "/projects/" + projectID.String() + "/export/publish?format=png"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"https://s3.local/x"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	svc.AssertExpectations(t)
}

func TestAuthorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serializer.SetLogger(zap.NewNop())

	author := &model.Author{ID: uuid.New(), Name: "alice"}
	svc := &MockAuthorService{}
	svc.On("Create", mock.Anything, service.CreateAuthorInput{Name: "alice"}).
		Return(&service.CreateAuthorOutput{Author: author, Token: "sk-author-abc"}, nil)

	h := NewAuthorHandler(svc)
	r := gin.New()
	r.POST("/admin/authors", h.CreateAuthor)
	r.GET("/me", withAuthor(author), h.Me)
	r.GET("/anon", h.Me)

	req := httptest.NewRequest(http.MethodPost, "/admin/authors", strings.NewReader(`{"name":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"sk-author-abc"`)

	req = httptest.NewRequest(http.MethodPost, "/admin/authors", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"alice"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.AssertExpectations(t)
}
