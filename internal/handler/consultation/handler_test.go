package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/consult-api/internal/model"
	pkgerrors "github.com/jwalitptl/consult-api/pkg/errors"
)

type fakeService struct {
	resp *model.ConsultationResponse
	err  error

	received *model.ConsultationRequest
}

func (f *fakeService) Process(_ context.Context, req *model.ConsultationRequest) (*model.ConsultationResponse, error) {
	f.received = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return engine
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"session_id": "session-1",
		"symptoms":   "itchy patch",
		"analysis": map[string]interface{}{
			"predictions": []map[string]interface{}{
				{"condition": "Eczema", "confidence": 0.8},
			},
			"risk_level": "low",
		},
	}
}

func post(t *testing.T, engine *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateConsultationSuccess(t *testing.T) {
	svc := &fakeService{resp: &model.ConsultationResponse{
		SessionID: "session-1",
		Consultation: model.Consultation{
			ConditionAssessment: "assessment",
			Recommendations:     []string{"consult a professional"},
			UrgencyLevel:        model.UrgencyRoutine,
			MedicalDisclaimer:   "disclaimer",
		},
	}}
	engine := newTestRouter(svc)

	w := post(t, engine, validBody())

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Status string                     `json:"status"`
		Data   model.ConsultationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "session-1", envelope.Data.SessionID)
	require.NotNil(t, svc.received)
	assert.Equal(t, "itchy patch", svc.received.Symptoms)
}

func TestCreateConsultationMalformedBody(t *testing.T) {
	engine := newTestRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConsultationMissingAnalysis(t *testing.T) {
	engine := newTestRouter(&fakeService{})

	body := validBody()
	delete(body, "analysis")
	w := post(t, engine, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConsultationBadPriority(t *testing.T) {
	engine := newTestRouter(&fakeService{})

	body := validBody()
	body["priority"] = "asap"
	w := post(t, engine, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConsultationValidationError(t *testing.T) {
	svc := &fakeService{err: pkgerrors.NewValidation("invalid consultation request", nil)}
	engine := newTestRouter(svc)

	w := post(t, engine, validBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConsultationAuthFailureIsBadGateway(t *testing.T) {
	svc := &fakeService{err: pkgerrors.NewAuthentication(nil)}
	engine := newTestRouter(svc)

	w := post(t, engine, validBody())

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "error", envelope.Status)
	assert.NotEmpty(t, envelope.Message)
}
