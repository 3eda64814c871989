package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/consult-api/internal/config"
	"github.com/jwalitptl/consult-api/internal/dispatch"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/service/fallback"
	"github.com/jwalitptl/consult-api/internal/service/prompt"
	"github.com/jwalitptl/consult-api/internal/service/risk"
	"github.com/jwalitptl/consult-api/internal/service/validation"
	pkgerrors "github.com/jwalitptl/consult-api/pkg/errors"
	"github.com/jwalitptl/consult-api/pkg/logger"
	"github.com/jwalitptl/consult-api/pkg/messaging"
	"github.com/jwalitptl/consult-api/pkg/metrics"
)

// EventConsultationCompleted is the broker channel for completion events.
const EventConsultationCompleted = "consultation.completed"

// Dispatcher is the delivery dependency of the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt *model.MedicalPrompt, priority model.Priority, timeout time.Duration) (*dispatch.Result, error)
}

// Service runs the full consultation pipeline. Every well-formed request
// yields a consultation; only malformed input and terminal authentication
// failures surface as errors.
type Service interface {
	Process(ctx context.Context, req *model.ConsultationRequest) (*model.ConsultationResponse, error)
}

type service struct {
	cfg        config.DispatcherConfig
	risk       risk.Service
	prompts    prompt.Builder
	dispatcher Dispatcher
	validator  validation.Service
	fallback   fallback.Engine
	cache      *cache.Cache
	broker     messaging.Broker
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(
	cfg config.DispatcherConfig,
	riskSvc risk.Service,
	prompts prompt.Builder,
	dispatcher Dispatcher,
	validator validation.Service,
	fb fallback.Engine,
	resultCache *cache.Cache,
	broker messaging.Broker,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		cfg:        cfg,
		risk:       riskSvc,
		prompts:    prompts,
		dispatcher: dispatcher,
		validator:  validator,
		fallback:   fb,
		cache:      resultCache,
		broker:     broker,
		logger:     log,
		metrics:    m,
	}
}

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID attaches the request correlation id used in completion
// events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *service) Process(ctx context.Context, req *model.ConsultationRequest) (*model.ConsultationResponse, error) {
	started := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.NewValidation("invalid consultation request", err)
	}

	cacheKey := req.SessionID + ":" + req.Analysis.Fingerprint(req.Symptoms)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			if resp, ok := cached.(*model.ConsultationResponse); ok {
				if s.metrics != nil {
					s.metrics.CacheHits.Inc()
					s.metrics.ConsultationsTotal.WithLabelValues("cache").Inc()
				}
				return resp, nil
			}
		}
	}

	assessment := s.risk.Assess(req.Analysis, req.Symptoms)
	if s.metrics != nil {
		s.metrics.UrgencyAssessments.WithLabelValues(string(assessment.Level)).Inc()
	}

	// Immediate-tier requests jump the queue and run on the tighter budget.
	priority := req.Priority
	timeout := s.cfg.DefaultTimeout
	if assessment.Level == model.UrgencyImmediate {
		priority = model.PriorityHigh
		timeout = s.cfg.UrgentTimeout
	}

	medicalPrompt, err := s.prompts.Build(req.Analysis, req.Symptoms, assessment)
	if err != nil {
		s.logger.Error(err, "prompt construction failed, using offline fallback", "session_id", req.SessionID)
		return s.fallbackResponse(ctx, req, assessment, "prompt_error", 0, started), nil
	}

	result, err := s.dispatcher.Dispatch(ctx, medicalPrompt, priority, timeout)
	if err != nil {
		var dispErr *dispatch.DispatchError
		if errors.As(err, &dispErr) && dispErr.Reason == dispatch.ReasonAuth {
			// Misconfigured credentials are an operator problem, not a
			// fallback trigger.
			return nil, pkgerrors.NewAuthentication(err)
		}
		trigger := dispatchTrigger(dispErr)
		s.logger.Warn("dispatch failed, using offline fallback",
			"session_id", req.SessionID, "trigger", trigger, "error", err.Error())
		retries := 0
		if dispErr != nil {
			retries = dispErr.Retries
		}
		return s.fallbackResponse(ctx, req, assessment, trigger, retries, started), nil
	}

	consultation, contacts, report := s.validator.Validate(result.Text, req.Analysis, req.Symptoms, assessment)
	s.observeReport(report)

	if !report.SafetyValidated {
		s.logger.Warn("response below compliance floor, using offline fallback",
			"session_id", req.SessionID, "score", report.Score)
		return s.fallbackResponse(ctx, req, assessment, "low_compliance", result.Retries, started), nil
	}

	resp := &model.ConsultationResponse{
		SessionID:    req.SessionID,
		Consultation: *consultation,
		Metadata: model.ResponseMetadata{
			ModelUsed:       result.Model,
			ProcessingTime:  time.Since(started),
			ConfidenceScore: req.Analysis.OverallConfidence,
			ComplianceScore: report.Score,
			RetryCount:      result.Retries,
			FallbackUsed:    false,
			SafetyValidated: report.SafetyValidated,
		},
		EmergencyContacts: contacts,
	}

	s.finish(ctx, cacheKey, resp, "gemini")
	return resp, nil
}

// fallbackResponse synthesizes the offline consultation and records the
// trigger. It never fails.
func (s *service) fallbackResponse(ctx context.Context, req *model.ConsultationRequest, assessment *model.UrgencyAssessment, trigger string, retries int, started time.Time) *model.ConsultationResponse {
	if s.metrics != nil {
		s.metrics.FallbacksTotal.WithLabelValues(trigger).Inc()
	}

	consultation := s.fallback.Generate(req.Analysis, req.Symptoms, assessment)
	resp := &model.ConsultationResponse{
		SessionID:    req.SessionID,
		Consultation: *consultation,
		Metadata: model.ResponseMetadata{
			ModelUsed:       fallback.ModelName,
			ProcessingTime:  time.Since(started),
			ConfidenceScore: req.Analysis.OverallConfidence,
			// Fallback templates carry the disclaimer, uncertainty phrasing
			// and contact guidance by construction.
			ComplianceScore: 100,
			RetryCount:      retries,
			FallbackUsed:    true,
			SafetyValidated: true,
		},
	}
	// The assessor already tiers the contact list, so the fallback carries
	// the same contacts the live path would.
	resp.EmergencyContacts = assessment.Contacts

	s.finish(ctx, req.SessionID+":"+req.Analysis.Fingerprint(req.Symptoms), resp, "fallback")
	return resp
}

// finish caches the response, publishes the completion event and bumps the
// source counter.
func (s *service) finish(ctx context.Context, cacheKey string, resp *model.ConsultationResponse, source string) {
	if s.metrics != nil {
		s.metrics.ConsultationsTotal.WithLabelValues(source).Inc()
	}
	if s.cache != nil {
		s.cache.SetDefault(cacheKey, resp)
	}
	if s.broker == nil {
		return
	}

	event := model.ConsultationEvent{
		SessionID:       resp.SessionID,
		RequestID:       requestIDFrom(ctx),
		Urgency:         resp.Consultation.UrgencyLevel,
		FallbackUsed:    resp.Metadata.FallbackUsed,
		SafetyValidated: resp.Metadata.SafetyValidated,
		ComplianceScore: resp.Metadata.ComplianceScore,
		CompletedAt:     time.Now().UTC(),
	}

	// Publishing is best-effort and must not delay the response.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.broker.Publish(pubCtx, EventConsultationCompleted, event); err != nil {
			s.logger.Warn("failed to publish completion event",
				"session_id", event.SessionID, "error", err.Error())
		}
	}()
}

func (s *service) observeReport(report *validation.Report) {
	if s.metrics == nil {
		return
	}
	s.metrics.ComplianceScore.Observe(float64(report.Score))
	for _, repair := range report.Repairs {
		s.metrics.ComplianceRepairs.WithLabelValues(repair).Inc()
	}
}

func dispatchTrigger(err *dispatch.DispatchError) string {
	if err == nil {
		return "dispatch_error"
	}
	if err.RateLimited {
		return "rate_limited"
	}
	return string(err.Reason)
}
