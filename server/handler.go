package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/transbasket"
	"github.com/ZaguanLabs/transbasket/metrics"
	"github.com/ZaguanLabs/transbasket/provider"
)

const (
	maxTextLength   = 10000
	logDisplayChars = 50
)

// TranslateRequest is the JSON body of POST /translate.
type TranslateRequest struct {
	Timestamp string `json:"timestamp"`
	UUID      string `json:"uuid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

// TranslateResponse echoes the request's timestamp and uuid byte-for-byte
// so clients can match responses to requests.
type TranslateResponse struct {
	Timestamp      string `json:"timestamp"`
	UUID           string `json:"uuid"`
	TranslatedText string `json:"translatedText"`
}

// ErrorResponse is the JSON body of every non-200 response.
type ErrorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	UUID         string `json:"uuid,omitempty"`
	Timestamp    string `json:"timestamp"`
}

func errorBody(code, message, uuid string) ErrorResponse {
	return ErrorResponse{
		ErrorCode:    code,
		ErrorMessage: message,
		UUID:         uuid,
		Timestamp:    transbasket.NowTimestamp(),
	}
}

// validate checks every request field, returning the first failure.
func (r *TranslateRequest) validate() error {
	if !transbasket.ValidTimestamp(r.Timestamp) {
		return &transbasket.ValidationError{Field: "timestamp", Message: "must be RFC 3339"}
	}
	if !transbasket.ValidUUID(r.UUID) {
		return &transbasket.ValidationError{Field: "uuid", Message: "must be a version-4 UUID"}
	}
	if !transbasket.ValidLanguage(r.From) {
		return &transbasket.ValidationError{Field: "from", Message: "must be an ISO 639-2 code"}
	}
	if !transbasket.ValidLanguage(r.To) {
		return &transbasket.ValidationError{Field: "to", Message: "must be an ISO 639-2 code"}
	}
	if len(r.Text) < 1 {
		return &transbasket.ValidationError{Field: "text", Message: "must not be empty"}
	}
	if len(r.Text) > maxTextLength {
		return &transbasket.ValidationError{Field: "text", Message: "too long"}
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": transbasket.Name,
		"version": transbasket.Version,
	})
}

// handleTranslate runs the per-request cache protocol: a confirmed
// entry short-circuits the external call; anything else translates
// externally and reconciles the result into the cache.
func (s *Server) handleTranslate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("MALFORMED_REQUEST", "request body is not valid JSON", ""))
		return
	}

	if err := req.validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody("VALIDATION_ERROR", err.Error(), req.UUID))
		return
	}

	text := transbasket.CleanText(req.Text)
	if text == "" {
		c.JSON(http.StatusUnprocessableEntity,
			errorBody("VALIDATION_ERROR", "text is empty after sanitization", req.UUID))
		return
	}

	log := s.logger.With(zap.String("uuid", req.UUID))
	log.Info("translation request",
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.String("text", transbasket.Truncate(text, logDisplayChars, "...")))

	// Confirmed entries are served straight from the cache.
	entry, found, err := s.cache.Lookup(req.From, req.To, text)
	if err != nil {
		// A failed lookup degrades to a miss; the provider still answers.
		log.Warn("cache lookup failed", zap.Error(err))
		found = false
	}

	if found && entry.Count >= s.cfg.Cache.Threshold {
		if err := s.cache.UpdateCount(&entry); err != nil {
			log.Warn("cache hit count update failed", zap.Error(err))
		}
		metrics.CacheHits.Inc()
		metrics.TranslationsTotal.WithLabelValues("cache").Inc()

		log.Info("translation served from cache", zap.Int("count", entry.Count))
		c.JSON(http.StatusOK, TranslateResponse{
			Timestamp:      req.Timestamp,
			UUID:           req.UUID,
			TranslatedText: entry.TranslatedText,
		})
		return
	}

	metrics.CacheMisses.Inc()

	// The façade lock is never held across the external call.
	ctx, cancel := context.WithTimeout(c.Request.Context(),
		time.Duration(s.cfg.OpenAI.TimeoutSeconds)*time.Second)
	defer cancel()

	translation, err := s.translator.Translate(ctx, provider.Request{
		FromLang: req.From,
		ToLang:   req.To,
		Text:     text,
		UUID:     req.UUID,
	})
	if err != nil {
		s.respondProviderError(c, log, &req, err)
		return
	}

	// Best effort: a failed cache write still returns the translation.
	if err := s.cache.Reconcile(req.From, req.To, text, translation); err != nil {
		log.Warn("cache reconcile failed", zap.Error(err))
	}
	metrics.TranslationsTotal.WithLabelValues("provider").Inc()

	log.Info("translation completed",
		zap.String("result", transbasket.Truncate(translation, logDisplayChars, "...")))
	c.JSON(http.StatusOK, TranslateResponse{
		Timestamp:      req.Timestamp,
		UUID:           req.UUID,
		TranslatedText: translation,
	})
}

// respondProviderError maps upstream failures onto 502/503/504.
func (s *Server) respondProviderError(c *gin.Context, log *zap.Logger, req *TranslateRequest, err error) {
	metrics.TranslationFailuresTotal.Inc()
	log.Error("translation failed", zap.Error(err))

	var pe *transbasket.ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.Timeout:
			c.JSON(http.StatusGatewayTimeout,
				errorBody("TRANSLATION_TIMEOUT", "upstream translation timed out", req.UUID))
		case pe.Retryable:
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable,
				errorBody("TRANSLATION_ERROR", pe.Error(), req.UUID))
		default:
			c.JSON(http.StatusBadGateway,
				errorBody("TRANSLATION_ERROR", pe.Error(), req.UUID))
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout,
			errorBody("TRANSLATION_TIMEOUT", "upstream translation timed out", req.UUID))
		return
	}

	c.JSON(http.StatusInternalServerError,
		errorBody("INTERNAL_ERROR", "translation failed", req.UUID))
}
