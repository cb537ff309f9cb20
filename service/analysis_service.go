package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mietrecht-backend/knowledge"
	"mietrecht-backend/models"
	"mietrecht-backend/storage"
)

// MaxDocumentSize is the largest document accepted for analysis
const MaxDocumentSize = 20 << 20

const (
	defaultAITimeout   = 60 * time.Second
	maxQuestionLength  = 4000
	offlineProviderTag = "offline"
)

// AnalysisService answers rental-law questions from the knowledge base or a generative provider
type AnalysisService struct {
	base      *knowledge.Base
	resolver  *knowledge.Resolver
	chat      TextProvider
	documents DocumentProvider
	archive   storage.Storage
	timeout   time.Duration
	logger    *zap.Logger
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithKnowledge sets the knowledge base and its resolver
func WithKnowledge(base *knowledge.Base, resolver *knowledge.Resolver) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.base = base
		s.resolver = resolver
	}
}

// WithChatProvider sets the general-purpose chat provider. It is preferred for free text.
func WithChatProvider(p TextProvider) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.chat = p
	}
}

// WithMultimodalProvider sets the provider used for documents and, without a chat provider, for free text
func WithMultimodalProvider(p DocumentProvider) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.documents = p
	}
}

// WithDocumentArchive archives uploaded documents before analysis
func WithDocumentArchive(st storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.archive = st
	}
}

// WithAITimeout bounds every provider call
func WithAITimeout(d time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAnalysisLogger sets the logger
func WithAnalysisLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		timeout: defaultAITimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// textProvider returns the provider for free text, nil means offline
func (s *AnalysisService) textProvider() TextProvider {
	if s.chat != nil {
		return s.chat
	}
	if s.documents != nil {
		return s.documents
	}
	return nil
}

// ProviderStatus describes which providers are configured
type ProviderStatus struct {
	Text      string `json:"text"`
	Documents string `json:"documents,omitempty"`
	Offline   bool   `json:"offline"`
}

// Status reports the provider selection made at construction
func (s *AnalysisService) Status() ProviderStatus {
	st := ProviderStatus{Text: offlineProviderTag, Offline: true}
	if p := s.textProvider(); p != nil {
		st.Text = p.Name()
		st.Offline = false
	}
	if s.documents != nil {
		st.Documents = s.documents.Name()
	}
	return st
}

// TopicCount returns the number of knowledge base topics
func (s *AnalysisService) TopicCount() int {
	if s.base == nil {
		return 0
	}
	return s.base.Len()
}

// Topics lists the knowledge base topics in order
func (s *AnalysisService) Topics() ([]string, error) {
	if s.base == nil {
		return nil, errors.New("knowledge base not set")
	}
	return s.base.Topics(), nil
}

// Topic returns one knowledge base record
func (s *AnalysisService) Topic(name string) (*models.LegalTopic, error) {
	if s.base == nil {
		return nil, errors.New("knowledge base not set")
	}
	t, ok := s.base.Topic(name)
	if !ok {
		return nil, fmt.Errorf("%w: topic %q", ErrNotFound, name)
	}
	return &t, nil
}

func validateQuestion(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", validationError("question is empty")
	}
	if len([]rune(q)) > maxQuestionLength {
		return "", validationError("question exceeds %d characters", maxQuestionLength)
	}
	return q, nil
}

// Ask answers from the knowledge base when the question resolves to a topic and
// from Analyze otherwise
func (s *AnalysisService) Ask(ctx context.Context, question string) (*models.AnalysisResult, error) {
	q, err := validateQuestion(question)
	if err != nil {
		return nil, err
	}

	if s.resolver != nil && s.base != nil {
		if name, ok := s.resolver.Resolve(q); ok {
			if t, ok := s.base.Topic(name); ok {
				s.logger.Debug("question resolved to topic", zap.String("topic", name))
				res := t.Result()
				return &res, nil
			}
		}
	}

	return s.Analyze(ctx, q)
}

// Analyze sends the question to the configured provider. Without any provider it
// returns the deterministic offline answer; a configured provider that fails is
// reported as a ProviderError and never replaced by the offline answer.
func (s *AnalysisService) Analyze(ctx context.Context, question string) (*models.AnalysisResult, error) {
	q, err := validateQuestion(question)
	if err != nil {
		return nil, err
	}

	p := s.textProvider()
	if p == nil {
		s.logger.Info("no AI provider configured, using offline answer")
		return offlineAnswer(q), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.Complete(callCtx, CompletionRequest{
		System:      analysisSystemPrompt,
		Prompt:      analysisPrompt(q),
		Temperature: textTemperature,
	})
	if err != nil {
		s.logger.Error("AI provider call failed",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}

	result, err := parseAnswer(p.Name(), raw)
	if err != nil {
		s.logger.Error("AI provider returned unusable answer",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("AI analysis completed",
		zap.String("provider", p.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// AnalyzeDocumentRequest represents an uploaded document
type AnalyzeDocumentRequest struct {
	Data     []byte
	MimeType string
	Filename string
}

// AnalyzeDocument extracts an AnalysisResult from a document. It needs a
// multimodal provider; there is no offline answer for documents.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) (*models.AnalysisResult, error) {
	if len(req.Data) == 0 {
		return nil, validationError("file content is empty")
	}
	if len(req.Data) > MaxDocumentSize {
		return nil, validationError("file exceeds %d bytes", MaxDocumentSize)
	}
	if s.documents == nil {
		return nil, fmt.Errorf("%w: document analysis needs a multimodal provider", ErrConfiguration)
	}

	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = http.DetectContentType(req.Data)
	}
	mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])

	if s.archive != nil {
		doc := models.Document{
			ID:       uuid.New(),
			Filename: req.Filename,
			MimeType: mimeType,
			Size:     int64(len(req.Data)),
		}
		storagePath, err := s.archive.Upload(ctx, doc, bytes.NewReader(req.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to archive document: %w", err)
		}
		s.logger.Info("document archived",
			zap.String("document_id", doc.ID.String()),
			zap.String("path", storagePath),
			zap.Int64("size", doc.Size),
		)
		result, err := s.analyzeDocument(ctx, req.Data, mimeType)
		if err != nil {
			if delErr := s.archive.Delete(context.WithoutCancel(ctx), storagePath); delErr != nil {
				s.logger.Warn("failed to remove archived document", zap.String("path", storagePath), zap.Error(delErr))
			}
			return nil, err
		}
		result.DocumentID = storagePath
		return result, nil
	}

	return s.analyzeDocument(ctx, req.Data, mimeType)
}

func (s *AnalysisService) analyzeDocument(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	p := s.documents

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := p.CompleteDocument(callCtx, CompletionRequest{
		System:      documentSystemPrompt,
		Prompt:      documentPrompt,
		Temperature: documentTemperature,
	}, data, mimeType)
	if err != nil {
		s.logger.Error("document analysis failed",
			zap.String("provider", p.Name()),
			zap.String("mime_type", mimeType),
			zap.Error(err),
		)
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}

	result, err := parseAnswer(p.Name(), raw)
	if err != nil {
		s.logger.Error("document analysis returned unusable answer",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// OpenDocument streams an archived document. The caller closes it.
func (s *AnalysisService) OpenDocument(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: document archive", ErrConfiguration)
	}
	rc, err := s.archive.Download(ctx, storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: document %q", ErrNotFound, storagePath)
		}
		return nil, err
	}
	return rc, nil
}
