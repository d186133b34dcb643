package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/campaign/http/dto"
	httpMocks "github.com/onekeel/swarm/internal/campaign/http/mocks"
	"github.com/onekeel/swarm/internal/campaign/usecase"
)

// setupTestHandler creates a test campaign handler with mocked dependencies
// and a router with the campaign routes registered.
func setupTestHandler(t *testing.T) (*gin.Engine, *httpMocks.MockCampaignUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &httpMocks.MockCampaignUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewCampaignHandler(mockUseCase, logger)
	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/v1"))

	return engine, mockUseCase
}

func performRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func testCampaign() *domain.Campaign {
	now := time.Now().UTC()
	return &domain.Campaign{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      "welcome-drip",
		Channel:   domain.ChannelEmail,
		Subject:   "Welcome, {{name}}!",
		Body:      "Hi {{name}}, thanks for signing up.",
		Status:    domain.CampaignActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCampaignHandler_CreateCampaign(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		campaign := testCampaign()
		request := dto.CreateCampaignRequest{
			Name:    campaign.Name,
			Channel: "email",
			Subject: campaign.Subject,
			Body:    campaign.Body,
		}

		mockUseCase.On("CreateCampaign", mock.Anything, dto.ToCreateCampaignInput(request)).
			Return(campaign, nil).
			Once()

		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns", request)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.CampaignResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, campaign.ID, response.ID)
		assert.Equal(t, "email", response.Channel)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/campaigns", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_UnknownChannel", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		request := dto.CreateCampaignRequest{Name: "x", Channel: "carrier-pigeon", Body: "hello"}
		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns", request)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MissingBody", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		request := dto.CreateCampaignRequest{Name: "x", Channel: "email"}
		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns", request)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_DuplicateName", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		request := dto.CreateCampaignRequest{Name: "welcome-drip", Channel: "email", Body: "hello"}
		mockUseCase.On("CreateCampaign", mock.Anything, mock.Anything).
			Return(nil, domain.ErrCampaignAlreadyExists).
			Once()

		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns", request)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCampaignHandler_GetCampaign(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		campaign := testCampaign()
		mockUseCase.On("GetCampaign", mock.Anything, campaign.ID).
			Return(campaign, nil).
			Once()

		w := performRequest(t, engine, http.MethodGet, "/v1/campaigns/"+campaign.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetCampaign", mock.Anything, id).
			Return(nil, domain.ErrCampaignNotFound).
			Once()

		w := performRequest(t, engine, http.MethodGet, "/v1/campaigns/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_MalformedID", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		w := performRequest(t, engine, http.MethodGet, "/v1/campaigns/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCampaignHandler_ListCampaigns(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		campaigns := []*domain.Campaign{testCampaign(), testCampaign()}
		mockUseCase.On("ListCampaigns", mock.Anything, 0, 50).
			Return(campaigns, nil).
			Once()

		w := performRequest(t, engine, http.MethodGet, "/v1/campaigns", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListCampaignsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Campaigns, 2)
	})

	t.Run("Error_InvalidPagination", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		w := performRequest(t, engine, http.MethodGet, "/v1/campaigns?limit=9999", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCampaignHandler_UpdateCampaign(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		campaign := testCampaign()
		request := dto.UpdateCampaignRequest{Status: "active"}

		mockUseCase.On("UpdateCampaign", mock.Anything, campaign.ID, dto.ToUpdateCampaignInput(request)).
			Return(campaign, nil).
			Once()

		w := performRequest(t, engine, http.MethodPut, "/v1/campaigns/"+campaign.ID.String(), request)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_UnknownStatus", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		request := dto.UpdateCampaignRequest{Status: "paused"}

		w := performRequest(t, engine, http.MethodPut, "/v1/campaigns/"+id.String(), request)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestCampaignHandler_TriggerExecution(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		campaign := testCampaign()
		execution := &domain.Execution{
			ID:         uuid.Must(uuid.NewV7()),
			CampaignID: campaign.ID,
			Status:     domain.ExecutionQueued,
			Stats:      domain.ExecutionStats{Total: 1, Queued: 1},
			CreatedAt:  time.Now().UTC(),
		}

		request := dto.TriggerExecutionRequest{
			Recipients: []dto.RecipientRequest{
				{Address: "a@example.com", Variables: map[string]string{"name": "Ana"}},
			},
		}

		mockUseCase.On("TriggerExecution", mock.Anything, campaign.ID, dto.ToTriggerExecutionInput(request)).
			Return(execution, nil).
			Once()

		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns/"+campaign.ID.String()+"/executions", request)

		assert.Equal(t, http.StatusAccepted, w.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Contains(t, body, "execution")
		require.Contains(t, body, "metrics")

		var response dto.ExecutionStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, execution.ID, response.Execution.ID)
		assert.Equal(t, "queued", response.Execution.Status)
		assert.Equal(t, 1, response.Metrics.Total)
	})

	t.Run("Error_EmptyAudience", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		request := dto.TriggerExecutionRequest{}

		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns/"+id.String()+"/executions", request)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_BlankAddress", func(t *testing.T) {
		engine, _ := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		request := dto.TriggerExecutionRequest{
			Recipients: []dto.RecipientRequest{{Address: "   "}},
		}

		w := performRequest(t, engine, http.MethodPost, "/v1/campaigns/"+id.String()+"/executions", request)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestCampaignHandler_GetExecution(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		executionID := uuid.Must(uuid.NewV7())
		finishedAt := time.Now().UTC()
		detail := &usecase.ExecutionDetail{
			Execution: &domain.Execution{
				ID:         executionID,
				CampaignID: uuid.Must(uuid.NewV7()),
				Status:     domain.ExecutionPartial,
				Stats:      domain.ExecutionStats{Total: 3, Sent: 2, Failed: 1},
				FinishedAt: &finishedAt,
			},
			Recipients: []*domain.Recipient{
				{ID: uuid.Must(uuid.NewV7()), Address: "a@example.com", Status: domain.RecipientSent, MessageID: "msg-1"},
				{ID: uuid.Must(uuid.NewV7()), Address: "b@example.com", Status: domain.RecipientFailed, LastError: "mailbox unavailable"},
			},
		}

		mockUseCase.On("GetExecution", mock.Anything, executionID).
			Return(detail, nil).
			Once()

		w := performRequest(t, engine, http.MethodGet, "/v1/executions/"+executionID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ExecutionDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "partial", response.Execution.Status)
		assert.Equal(t, 2, response.Metrics.Sent)
		assert.Equal(t, 1, response.Metrics.Failed)
		require.Len(t, response.Recipients, 2)
		assert.Equal(t, "mailbox unavailable", response.Recipients[1].LastError)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetExecution", mock.Anything, id).
			Return(nil, domain.ErrExecutionNotFound).
			Once()

		w := performRequest(t, engine, http.MethodGet, "/v1/executions/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCampaignHandler_StopExecution(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("StopExecution", mock.Anything, id).
			Return(nil).
			Once()

		w := performRequest(t, engine, http.MethodPost, "/v1/executions/"+id.String()+"/stop", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_AlreadyFinished", func(t *testing.T) {
		engine, mockUseCase := setupTestHandler(t)

		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("StopExecution", mock.Anything, id).
			Return(domain.ErrExecutionTerminal).
			Once()

		w := performRequest(t, engine, http.MethodPost, "/v1/executions/"+id.String()+"/stop", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
