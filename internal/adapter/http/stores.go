package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/catalog"
	"github.com/couchcryptid/store-tier-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// StoreCatalog provides the current store snapshot.
type StoreCatalog interface {
	Snapshot() (*catalog.Snapshot, error)
}

// Backend performs per-store calls against the field-operations backend.
type Backend interface {
	Insights(ctx context.Context, storeID int64) ([]domain.Insight, error)
	SubmitFeedback(ctx context.Context, store domain.StoreRecord, fb domain.Feedback) (domain.FeedbackReceipt, error)
}

type storeAPI struct {
	stores  StoreCatalog
	backend Backend
	logger  *slog.Logger
}

type listResponse struct {
	Count     int                `json:"count"`
	Tier      domain.Tier        `json:"tier,omitempty"`
	Search    string             `json:"search,omitempty"`
	FetchedAt time.Time          `json:"fetched_at"`
	Stores    []domain.StoreView `json:"stores"`
}

type statsResponse struct {
	domain.Summary
	Duplicates []int64   `json:"duplicate_ids"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type insightsResponse struct {
	StoreID  int64            `json:"store_id"`
	Count    int              `json:"count"`
	Insights []domain.Insight `json:"insights"`
}

func (a *storeAPI) snapshot(w http.ResponseWriter) (*catalog.Snapshot, bool) {
	snap, err := a.stores.Snapshot()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return nil, false
	}
	return snap, true
}

func (a *storeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	tier, err := domain.ParseTier(r.URL.Query().Get("tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}

	search := r.URL.Query().Get("q")
	matched := domain.Query(snap.Stores, tier, search)
	views := domain.NewStoreViews(matched)
	sharedobs.WriteJSON(w, http.StatusOK, listResponse{
		Count:     len(views),
		Tier:      tier,
		Search:    search,
		FetchedAt: snap.FetchedAt,
		Stores:    views,
	})
}

func (a *storeAPI) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	dups := snap.Duplicates
	if dups == nil {
		dups = []int64{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, statsResponse{Summary: snap.Summary, Duplicates: dups, FetchedAt: snap.FetchedAt})
}

func (a *storeAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	snap, ok := a.snapshot(w)
	if !ok {
		return
	}
	store, found := snap.Lookup(id)
	if !found {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, domain.NewStoreView(store))
}

func (a *storeAPI) handleInsights(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	insights, err := a.backend.Insights(r.Context(), id)
	if err != nil {
		a.writeBackendError(w, "insights", id, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, insightsResponse{StoreID: id, Count: len(insights), Insights: insights})
}

func (a *storeAPI) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var fb domain.Feedback
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode feedback: %w", err))
		return
	}

	// Stores without a writable id are never indexed; let the service refuse
	// them explicitly.
	store := domain.StoreRecord{ID: id}
	if id > 0 {
		snap, ok := a.snapshot(w)
		if !ok {
			return
		}
		found, exists := snap.Lookup(id)
		if !exists {
			writeError(w, http.StatusNotFound, errNotFound)
			return
		}
		store = found
	}

	receipt, err := a.backend.SubmitFeedback(r.Context(), store, fb)
	if err != nil {
		a.writeBackendError(w, "feedback", id, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, receipt)
}

// writeBackendError maps the error taxonomy onto HTTP statuses.
func (a *storeAPI) writeBackendError(w http.ResponseWriter, op string, id int64, err error) {
	var (
		recordErr *domain.InvalidRecordError
		serverErr *domain.ServerError
		netErr    *domain.NetworkError
		decodeErr *domain.DecodeError
		urlErr    *domain.InvalidURLError
	)
	switch {
	case errors.As(err, &recordErr):
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: "invalid_record"})
	case errors.Is(err, domain.ErrInvalidFeedback):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "invalid_feedback"})
	case errors.As(err, &serverErr):
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: "server", UpstreamCode: serverErr.StatusCode})
	case errors.As(err, &netErr):
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		sharedobs.WriteJSON(w, status, errorBody{Error: err.Error(), Kind: "network"})
	case errors.As(err, &decodeErr):
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: "decode", Attempts: decodeErr.Attempts})
	case errors.As(err, &urlErr):
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: "invalid_url"})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
	a.logger.Warn("backend call failed", "op", op, "store_id", id, "error", err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid store id %q", raw))
		return 0, false
	}
	return id, true
}
