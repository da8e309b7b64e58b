// Package ingest turns backend responses into domain values. It owns no
// transport: every call goes through an injected domain.Fetcher, and every
// response passes the status gate before any decoding is attempted.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
)

// Service fetches and decodes backend resources. Overlapping calls run
// independently; nothing is cached or coalesced.
type Service struct {
	fetcher domain.Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service over fetcher.
func NewService(fetcher domain.Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{fetcher: fetcher, logger: logger, metrics: metrics}
}

// Stores fetches and decodes the full store list.
func (s *Service) Stores(ctx context.Context) ([]domain.StoreRecord, error) {
	return s.storeList(ctx, domain.EndpointStores, "tiendas")
}

// ProblemStores fetches the stores the backend flags as problematic.
func (s *Service) ProblemStores(ctx context.Context) ([]domain.StoreRecord, error) {
	return s.storeList(ctx, domain.EndpointProblemStores, "tiendas/problematicas")
}

func (s *Service) storeList(ctx context.Context, endpoint, path string) ([]domain.StoreRecord, error) {
	body, err := s.get(ctx, domain.Request{Endpoint: endpoint, Path: path})
	if err != nil {
		return nil, err
	}
	stores, err := domain.DecodeStoresResponse(body)
	if err != nil {
		s.decodeFailed(endpoint, err)
		return nil, err
	}
	s.metrics.DecodeStrategy.WithLabelValues(endpoint, domain.StrategyStoreList).Inc()
	return stores, nil
}

// Insights fetches the AI insights for one store, trying each decode
// strategy in order.
func (s *Service) Insights(ctx context.Context, storeID int64) ([]domain.Insight, error) {
	body, err := s.get(ctx, domain.Request{
		Endpoint: domain.EndpointInsights,
		Path:     storePath(storeID, "insights"),
	})
	if err != nil {
		return nil, err
	}
	batch, err := domain.DecodeInsights(body)
	if err != nil {
		s.decodeFailed(domain.EndpointInsights, err)
		return nil, err
	}
	s.metrics.DecodeStrategy.WithLabelValues(domain.EndpointInsights, batch.Strategy).Inc()
	if batch.Strategy != domain.StrategyWrapper {
		s.logger.Info("insights decoded with fallback strategy",
			"store_id", storeID, "strategy", batch.Strategy, "count", len(batch.Insights))
	}
	return batch.Insights, nil
}

// SubmitFeedback posts feedback for store. It refuses stores without a
// writable id with a *domain.InvalidRecordError and invalid payloads with an
// error wrapping domain.ErrInvalidFeedback; neither reaches the backend.
func (s *Service) SubmitFeedback(ctx context.Context, store domain.StoreRecord, fb domain.Feedback) (domain.FeedbackReceipt, error) {
	if err := domain.EnsureWritable(store); err != nil {
		return domain.FeedbackReceipt{}, err
	}
	if err := fb.Validate(); err != nil {
		return domain.FeedbackReceipt{}, err
	}
	payload, err := json.Marshal(fb)
	if err != nil {
		return domain.FeedbackReceipt{}, fmt.Errorf("encode feedback: %w", err)
	}

	body, err := s.get(ctx, domain.Request{
		Endpoint: domain.EndpointFeedback,
		Method:   http.MethodPost,
		Path:     storePath(store.ID, "feedback"),
		Body:     payload,
	})
	if err != nil {
		return domain.FeedbackReceipt{}, err
	}
	receipt, err := domain.DecodeFeedbackReceipt(body)
	if err != nil {
		s.decodeFailed(domain.EndpointFeedback, err)
		return domain.FeedbackReceipt{}, err
	}
	s.metrics.DecodeStrategy.WithLabelValues(domain.EndpointFeedback, domain.StrategyFeedbackReceipt).Inc()
	return receipt, nil
}

// Health reports whether the backend answers its health check with
// success: true. Every failure reads as false.
func (s *Service) Health(ctx context.Context) bool {
	body, err := s.get(ctx, domain.Request{Endpoint: domain.EndpointHealth, Path: "health"})
	if err != nil {
		s.logger.Debug("backend health check failed", "error", err)
		return false
	}
	return domain.DecodeHealth(body)
}

// CheckReadiness fails while the backend health check fails.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if !s.Health(ctx) {
		return errors.New("backend health check failed")
	}
	return nil
}

// get performs req and applies the status gate. A non-200 response is a
// *domain.ServerError and its body is discarded undecoded. Fetcher errors
// are returned as is.
func (s *Service) get(ctx context.Context, req domain.Request) ([]byte, error) {
	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *Service) decodeFailed(endpoint string, err error) {
	var decodeErr *domain.DecodeError
	if !errors.As(err, &decodeErr) {
		return
	}
	reason := decodeErr.Reason()
	s.metrics.DecodeFailures.WithLabelValues(endpoint, string(reason.Kind)).Inc()
	s.logger.Warn("response decode failed",
		"endpoint", endpoint, "strategies", decodeErr.Attempted(), "kind", reason.Kind, "detail", reason.Detail)
}

func storePath(id int64, resource string) string {
	return "tiendas/" + strconv.FormatInt(id, 10) + "/" + resource
}
