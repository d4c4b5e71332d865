package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/audit"
	"github.com/vaibhav1874/TrueVail/internal/backends"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/evidence"
	"github.com/vaibhav1874/TrueVail/internal/extractor"
	"github.com/vaibhav1874/TrueVail/internal/heuristics"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/metrics"
	"github.com/vaibhav1874/TrueVail/internal/normalizer"
	"github.com/vaibhav1874/TrueVail/internal/statclassifier"
)

const defaultBackendTimeout = 60 * time.Second

// AnalysisServiceInterface defines the interface for analysis operations
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, req analysis.Request) analysis.Result
}

// Classifier is the local statistical tier consulted before any remote backend
type Classifier interface {
	Predict(text string) (statclassifier.Prediction, error)
}

// EvidenceGatherer collects grounding links for news content
type EvidenceGatherer interface {
	Enabled() bool
	Gather(ctx context.Context, content string) []analysis.EvidenceLink
}

// Dependencies are the collaborators of the orchestrator. Nil members disable their tier.
type Dependencies struct {
	Fetcher    extractor.ContentFetcher
	Evidence   EvidenceGatherer
	Classifier Classifier
	Backend    backends.Backend
	Heuristics *heuristics.Engine
	Metrics    *metrics.Metrics
	Recorder   audit.Recorder
}

// AnalysisService runs the per-mode fallback chain and never fails past its boundary
type AnalysisService struct {
	fetcher        extractor.ContentFetcher
	evidence       EvidenceGatherer
	classifier     Classifier
	backend        backends.Backend
	heuristics     *heuristics.Engine
	metrics        *metrics.Metrics
	recorder       audit.Recorder
	backendTimeout time.Duration
	logger         *logrus.Logger
}

func NewAnalysisService(cfg *config.Config, deps Dependencies) *AnalysisService {
	s := &AnalysisService{
		fetcher:        deps.Fetcher,
		evidence:       deps.Evidence,
		classifier:     deps.Classifier,
		backend:        deps.Backend,
		heuristics:     deps.Heuristics,
		metrics:        deps.Metrics,
		recorder:       deps.Recorder,
		backendTimeout: defaultBackendTimeout,
		logger:         logger.Log,
	}
	if cfg != nil && cfg.BackendTimeout > 0 {
		s.backendTimeout = cfg.BackendTimeout
	}
	if s.heuristics == nil {
		s.heuristics = heuristics.NewEngine()
	}
	if s.recorder == nil {
		s.recorder = audit.NopRecorder{}
	}
	return s
}

// NewAnalysisServiceFromConfig wires every tier the configuration enables
func NewAnalysisServiceFromConfig(cfg *config.Config, m *metrics.Metrics, recorder audit.Recorder) *AnalysisService {
	fetcher := extractor.New(cfg)
	deps := Dependencies{
		Fetcher:    fetcher,
		Evidence:   evidence.NewFromConfig(cfg),
		Backend:    backends.Select(cfg),
		Heuristics: heuristics.NewEngine(),
		Metrics:    m,
		Recorder:   recorder,
	}
	if d := NewDetectorFromConfig(cfg); d != nil {
		deps.Classifier = d
	}

	backendName := "none"
	if deps.Backend != nil {
		backendName = deps.Backend.Name()
	}
	logger.Log.WithFields(map[string]interface{}{
		"platform":           cfg.Platform,
		"backend":            backendName,
		"stat_classifier":    deps.Classifier != nil,
		"evidence_providers": deps.Evidence.Enabled(),
	}).Info("Analysis pipeline configured")

	return NewAnalysisService(cfg, deps)
}

// NewDetectorFromConfig returns the statistical detector, or nil when it is disabled
func NewDetectorFromConfig(cfg *config.Config) *statclassifier.Detector {
	if !cfg.StatClassifierEnabled {
		return nil
	}
	source := statclassifier.CorpusSource(statclassifier.BundledCorpus)
	if cfg.TrainingCorpusPath != "" {
		source = statclassifier.FileCorpus(cfg.TrainingCorpusPath)
	}
	return statclassifier.NewDetector(source, statclassifier.DefaultVectorizerOptions())
}

// WarmClassifier trains the statistical model ahead of the first request
func (s *AnalysisService) WarmClassifier() error {
	if w, ok := s.classifier.(interface{ Warm() error }); ok {
		return w.Warm()
	}
	return nil
}

// Analyze classifies one request. Every failure becomes a well-formed result.
func (s *AnalysisService) Analyze(ctx context.Context, req analysis.Request) (result analysis.Result) {
	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.LogErrorWithStackAndCorrelation(fmt.Errorf("analysis panicked: %v", r), correlationID, map[string]interface{}{
				"mode":      req.Mode,
				"operation": "analyze",
			})
			result = analysis.ErrorResult("An unexpected internal error occurred during analysis.")
		}
		result.Analysis = ""
		result.Finalize(req.Mode)
		s.complete(correlationID, req, result, time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"error":          err.Error(),
		}).Warn("Rejected malformed analysis request")
		return analysis.ErrorResult(fmt.Sprintf("Invalid request: %v.", err))
	}

	switch req.Mode {
	case analysis.ModeDeepfake:
		return s.analyzeDeepfake(ctx, req)
	case analysis.ModePrivacy:
		return s.analyzePrivacy(ctx, req)
	default:
		return s.analyzeNews(ctx, req)
	}
}

func (s *AnalysisService) complete(correlationID string, req analysis.Request, result analysis.Result, elapsed time.Duration) {
	s.metrics.ObserveAnalysis(string(req.Mode), result.Status, result.Source, elapsed)
	s.recorder.Record(audit.NewRecord(correlationID, req, result, elapsed))

	s.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"mode":           req.Mode,
		"status":         result.Status,
		"source":         result.Source,
		"confidence":     result.Confidence,
		"duration_ms":    elapsed.Milliseconds(),
	}).Info("Analysis completed")
}

func (s *AnalysisService) analyzeNews(ctx context.Context, req analysis.Request) analysis.Result {
	input := strings.TrimSpace(req.RawInput)
	if !analysis.IsURL(input) {
		return s.classifyNews(ctx, input)
	}

	content, fetched := s.extract(ctx, input)
	result := s.classifyNews(ctx, content)
	result = s.mergeURLReputation(result, input, content)
	setDetail(&result, "source_url", input)
	setDetail(&result, "content_fetched", fetched)
	return result
}

// classifyNews walks statistical, then remote, then heuristic tiers
func (s *AnalysisService) classifyNews(ctx context.Context, content string) analysis.Result {
	log := s.logger.WithField("correlation_id", logger.CorrelationIDFromContext(ctx))

	if s.classifier != nil {
		pred, err := s.classifier.Predict(content)
		if err == nil {
			return statisticalResult(pred, content)
		}
		log.WithField("error", err.Error()).Debug("Statistical classifier declined, trying next tier")
	}

	if s.backend != nil {
		var links []analysis.EvidenceLink
		if s.evidence != nil && s.evidence.Enabled() {
			links = s.evidence.Gather(ctx, content)
		}
		result, err := s.callBackend(ctx, analysis.ModeNews, newsPrompt(content, links), nil)
		if err == nil {
			if result.Status == analysis.StatusLikelyFake && result.Correction == "" {
				result.Correction = heuristics.SuggestCorrection(content)
			}
			if len(links) > 0 {
				setDetail(&result, "evidence_urls", evidence.URLs(links))
			}
			return result
		}
		if backends.IsQuotaExceeded(err) {
			return analysis.QuotaResult(analysis.ModeNews, s.backend.Name())
		}
	}

	return s.heuristics.ScoreNews(content)
}

// mergeURLReputation lets the URL reputation arbitrate only an Uncertain content verdict
func (s *AnalysisService) mergeURLReputation(result analysis.Result, rawURL, content string) analysis.Result {
	rep := s.heuristics.ScoreURL(rawURL)
	setDetail(&result, "url_reputation", rep.Label)
	if result.Status != analysis.StatusUncertain {
		return result
	}

	result.Status = rep.Status
	result.Confidence = math.Max(result.Confidence, rep.Confidence)
	result.Reason = joinReasons(result.Reason, rep.Reason)
	if result.Status == analysis.StatusLikelyFake && result.Correction == "" {
		result.Correction = heuristics.SuggestCorrection(content)
	}
	return result
}

func (s *AnalysisService) analyzePrivacy(ctx context.Context, req analysis.Request) analysis.Result {
	text := strings.TrimSpace(req.RawInput)
	if analysis.IsURL(text) {
		text, _ = s.extract(ctx, text)
	}

	fallback := s.heuristics.ScorePrivacy(text)
	if s.backend == nil || !s.backend.Capabilities().Has(backends.CapText) {
		return fallback
	}

	result, err := s.callBackend(ctx, analysis.ModePrivacy, privacyPrompt(text), nil)
	if err == nil {
		if result.PrivacyExplanation == "" {
			result.PrivacyExplanation = fallback.PrivacyExplanation
		}
		return result
	}
	if backends.IsQuotaExceeded(err) {
		quota := analysis.QuotaResult(analysis.ModePrivacy, s.backend.Name())
		quota.PrivacyRisk = fallback.PrivacyRisk
		quota.PrivacyExplanation = fallback.PrivacyExplanation
		return quota
	}
	return fallback
}

func (s *AnalysisService) analyzeDeepfake(ctx context.Context, req analysis.Request) analysis.Result {
	identifier := strings.TrimSpace(req.RawInput)
	if req.Media != nil && req.Media.Filename != "" {
		identifier = req.Media.Filename
	}

	if req.HasMedia() && s.backend != nil && s.backend.Capabilities().Has(backends.CapVision) {
		result, err := s.callBackend(ctx, analysis.ModeDeepfake, deepfakePrompt(req.Media), req.Media)
		if err == nil {
			return result
		}
		if backends.IsQuotaExceeded(err) {
			return analysis.QuotaResult(analysis.ModeDeepfake, s.backend.Name())
		}
	}

	return s.heuristics.ScoreDeepfakeByName(identifier)
}

// extract fetches page text, substituting the URL itself when the fetch fails
func (s *AnalysisService) extract(ctx context.Context, rawURL string) (string, bool) {
	if s.fetcher == nil {
		return rawURL, false
	}

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		kind := extractor.KindOf(err)
		s.metrics.FetchFailed(string(kind))
		s.logger.WithFields(map[string]interface{}{
			"correlation_id": logger.CorrelationIDFromContext(ctx),
			"url":            rawURL,
			"kind":           string(kind),
		}).Warn("Content fetch failed, analyzing the URL itself")
		return rawURL, false
	}

	text := page.Text
	if page.Title != "" && !strings.HasPrefix(text, page.Title) {
		text = page.Title + "\n" + text
	}
	if strings.TrimSpace(text) == "" {
		return rawURL, false
	}
	return text, true
}

// callBackend makes the single, unretried remote attempt and normalizes its output
func (s *AnalysisService) callBackend(ctx context.Context, mode analysis.Mode, prompt backends.Prompt, media *analysis.MediaPayload) (analysis.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	name := s.backend.Name()
	log := s.logger.WithFields(map[string]interface{}{
		"correlation_id": logger.CorrelationIDFromContext(ctx),
		"backend":        name,
		"mode":           mode,
	})

	raw, err := s.backend.Call(callCtx, prompt, media)
	if err != nil {
		kind := backends.KindOf(err)
		if kind == "" {
			kind = backends.KindConnection
		}
		s.metrics.BackendFailed(name, string(kind))
		if kind == backends.KindQuota {
			log.Warn("Remote backend quota exhausted")
		} else {
			log.WithField("kind", string(kind)).Info("Remote backend failed, falling back to heuristics")
		}
		return analysis.Result{}, err
	}

	out := normalizer.Parse(raw, mode)
	result := out.Result
	result.Source = analysis.RemoteSource(name)
	if len(out.Missing) > 0 {
		setDetail(&result, "unparsed_fields", out.Missing)
		log.WithFields(map[string]interface{}{
			"missing":  out.Missing,
			"response": logger.TruncateForLog(raw, 200),
		}).Debug("Backend response only partially parsed")
	}
	return result, nil
}

func statisticalResult(pred statclassifier.Prediction, content string) analysis.Result {
	status := analysis.StatusLikelyReal
	if pred.Label == statclassifier.LabelFake {
		status = analysis.StatusLikelyFake
	}

	result := analysis.Result{
		Status:     status,
		Confidence: pred.Confidence,
		Reason: fmt.Sprintf("The statistical model (TF-IDF n-grams with logistic regression) rates this text as %s with %.0f%% probability.",
			strings.ToLower(string(pred.Label)), pred.Confidence*100),
		Source: analysis.SourceStatistical,
		Details: map[string]interface{}{
			"matched_features": pred.Features,
		},
	}
	if status == analysis.StatusLikelyFake {
		result.Correction = heuristics.SuggestCorrection(content)
	}
	return result
}

func setDetail(r *analysis.Result, key string, value interface{}) {
	if r.Details == nil {
		r.Details = make(map[string]interface{})
	}
	r.Details[key] = value
}

func joinReasons(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
