package advice

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/pkg/clients/gemini"
)

// Static user-facing replies. The UI never sees a failed advice request, only
// this text.
const (
	adviceFallback   = "Desculpe, tive um problema ao processar seu pedido. Tente novamente em instantes."
	analysisFallback = "Não foi possível analisar o histórico de produção no momento."
)

// Service forwards questions to the Gemini client and swallows every failure
// into a fallback string. A nil client (no API key configured) behaves like a
// permanently failing one.
type Service struct {
	client gemini.Client
	logger *zap.Logger
}

// NewService constructs the advice gateway.
func NewService(client gemini.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// RequestAdvice answers a question, optionally grounded on one animal's
// snapshot.
func (s *Service) RequestAdvice(ctx context.Context, cow *models.Cow, question string) string {
	if s.client == nil {
		return adviceFallback
	}

	cowJSON := "null"
	if cow != nil {
		raw, err := json.Marshal(cow)
		if err != nil {
			s.logger.Error("failed to serialize cow snapshot", zap.Error(err))
			return adviceFallback
		}
		cowJSON = string(raw)
	}

	answer, err := s.client.VeterinaryAdvice(ctx, cowJSON, question)
	if err != nil {
		s.logger.Error("advice request failed", zap.Error(err))
		return adviceFallback
	}
	return answer
}

// AnalyzeProduction asks for improvement tips over a cow's production
// history.
func (s *Service) AnalyzeProduction(ctx context.Context, history []models.ProductionRecord) string {
	if s.client == nil {
		return analysisFallback
	}

	raw, err := json.Marshal(history)
	if err != nil {
		s.logger.Error("failed to serialize production history", zap.Error(err))
		return analysisFallback
	}

	answer, err := s.client.AnalyzeProduction(ctx, string(raw))
	if err != nil {
		s.logger.Error("production analysis failed", zap.Error(err))
		return analysisFallback
	}
	return answer
}
