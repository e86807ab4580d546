package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/core/analyze"
	"github.com/mojisejr/oeng-api/internal/metrics"
	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// Sentence business outcomes surfaced to handlers.
var (
	ErrSentenceNotFound = errors.New("sentence not found")
	ErrNotOwner         = errors.New("sentence belongs to another user")
	ErrAlreadyAnalyzed  = errors.New("sentence already analyzed")
)

// AnalyzeCost is the credit price of one analysis.
const AnalyzeCost = 1

// CreateSentenceRequest is the payload for submitting a sentence.
type CreateSentenceRequest struct {
	Text            string `json:"text"`
	UserTranslation string `json:"user_translation,omitempty"`
	Context         string `json:"context,omitempty"`
}

// AnalyzeResult is what a successful analysis returns to the handler.
type AnalyzeResult struct {
	SentenceID       string            `json:"sentence_id"`
	Analysis         *analyze.Analysis `json:"analysis"`
	CreditsRemaining int               `json:"credits_remaining"`
	TransactionID    string            `json:"transaction_id"`
}

// SentenceService owns the sentence lifecycle, including the analyze flow.
type SentenceService struct {
	db           *gorm.DB
	sentenceRepo repositories.SentenceRepo
	ledgerRepo   repositories.LedgerRepo
	analyzer     *analyze.Analyzer
	metrics      *metrics.LedgerMetrics
}

// NewSentenceService creates a new sentence service. metrics may be nil (tests).
func NewSentenceService(db *gorm.DB, sentenceRepo repositories.SentenceRepo, ledgerRepo repositories.LedgerRepo, analyzer *analyze.Analyzer, m *metrics.LedgerMetrics) *SentenceService {
	return &SentenceService{
		db:           db,
		sentenceRepo: sentenceRepo,
		ledgerRepo:   ledgerRepo,
		analyzer:     analyzer,
		metrics:      m,
	}
}

// Create validates and stores a pending sentence.
func (s *SentenceService) Create(ctx context.Context, userID string, req *CreateSentenceRequest) (*models.Sentence, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(text) > analyze.MaxSentenceLen {
		return nil, fmt.Errorf("text exceeds %d characters", analyze.MaxSentenceLen)
	}
	if len(req.UserTranslation) > 1000 {
		return nil, fmt.Errorf("user_translation exceeds 1000 characters")
	}
	if len(req.Context) > 1000 {
		return nil, fmt.Errorf("context exceeds 1000 characters")
	}

	sentence := &models.Sentence{
		UserID:          uid,
		Text:            text,
		UserTranslation: strings.TrimSpace(req.UserTranslation),
		Context:         strings.TrimSpace(req.Context),
		Status:          models.SentenceStatusPending,
	}
	if err := s.sentenceRepo.Create(sentence); err != nil {
		return nil, fmt.Errorf("failed to create sentence: %w", err)
	}
	return sentence, nil
}

// List retrieves the caller's sentences, newest first.
func (s *SentenceService) List(ctx context.Context, userID string, limit int) ([]models.Sentence, error) {
	return s.sentenceRepo.GetByUserID(userID, limit)
}

// Get retrieves one sentence, enforcing ownership.
func (s *SentenceService) Get(ctx context.Context, userID, sentenceID string) (*models.Sentence, error) {
	sentence, err := s.sentenceRepo.GetByID(sentenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSentenceNotFound
		}
		return nil, err
	}
	if sentence.UserID.String() != userID {
		return nil, ErrNotOwner
	}
	return sentence, nil
}

// Delete removes one of the caller's sentences.
func (s *SentenceService) Delete(ctx context.Context, userID, sentenceID string) error {
	if _, err := s.Get(ctx, userID, sentenceID); err != nil {
		return err
	}
	return s.sentenceRepo.Delete(sentenceID)
}

// Analyze runs the credit-gated analysis flow. The AI call happens first
// and has no side effects, so a provider failure leaves the sentence
// pending and the balance untouched. The deduction, its ledger entry, and
// the pending -> analyzed transition then commit in a single transaction.
func (s *SentenceService) Analyze(ctx context.Context, userID, sentenceID string) (*AnalyzeResult, error) {
	sentence, err := s.Get(ctx, userID, sentenceID)
	if err != nil {
		return nil, err
	}
	if sentence.Status != models.SentenceStatusPending {
		return nil, ErrAlreadyAnalyzed
	}

	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, sentence.Text, sentence.UserTranslation, sentence.Context)
	if s.metrics != nil {
		s.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.countAnalyze(strings.ToLower(string(analyze.CodeOf(err))))
		return nil, err
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	var entry *models.CreditTransaction
	sid := sentence.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.ledgerRepo.DeductInTx(tx, sentence.UserID, AnalyzeCost, "Sentence analysis", &sid)
		if err != nil {
			return err
		}
		updated, err := s.sentenceRepo.MarkAnalyzedInTx(tx, sentenceID, payload, AnalyzeCost)
		if err != nil {
			return err
		}
		if !updated {
			// A concurrent request won the transition; roll the deduction back.
			return ErrAlreadyAnalyzed
		}
		entry = e
		return nil
	})
	if err != nil {
		s.countAnalyze(resultLabel(err))
		return nil, err
	}

	s.countAnalyze("ok")
	if s.metrics != nil {
		s.metrics.DeductTotal.WithLabelValues("ok").Inc()
		s.metrics.CreditsSpent.Add(float64(AnalyzeCost))
	}

	utils.LogInfo("Sentence analyzed", map[string]interface{}{
		"sentence_id": sentenceID,
		"user_id":     userID,
		"balance":     entry.BalanceAfter,
	})

	return &AnalyzeResult{
		SentenceID:       sentenceID,
		Analysis:         analysis,
		CreditsRemaining: entry.BalanceAfter,
		TransactionID:    entry.ID.String(),
	}, nil
}

func (s *SentenceService) countAnalyze(result string) {
	if s.metrics != nil {
		s.metrics.AnalyzeTotal.WithLabelValues(result).Inc()
	}
}
