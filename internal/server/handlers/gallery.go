package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/3leaps/davgallery/internal/errors"
	"github.com/3leaps/davgallery/internal/observability"
	"github.com/3leaps/davgallery/pkg/provider"
)

// GalleryHandler serves listings and single entries from a provider.
type GalleryHandler struct {
	prov provider.Provider
}

// NewGalleryHandler creates a handler backed by prov.
func NewGalleryHandler(prov provider.Provider) *GalleryHandler {
	return &GalleryHandler{prov: prov}
}

// List handles GET /api/v1/list?path=&deep=.
//
// Query parameters other than path are decoded as list options, so
// deep=1, deep=true and deep=TRUE are all accepted.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := queryPath(q.Get("path"))

	raw := make(map[string]any, len(q))
	for k, vs := range q {
		if k == "path" || len(vs) == 0 {
			continue
		}
		raw[k] = vs[len(vs)-1]
	}
	opts, err := provider.DecodeListOptions(raw)
	if err != nil {
		respondWithError(w, r, apperrors.BadRequest("invalid list options", err))
		return
	}

	listing, err := h.prov.List(r.Context(), path, opts)
	if err != nil {
		h.logFailure(r, "List", path, err)
		respondWithError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, listing)
}

// Stat handles GET /api/v1/stat?path=.
func (h *GalleryHandler) Stat(w http.ResponseWriter, r *http.Request) {
	path := queryPath(r.URL.Query().Get("path"))

	entry, err := h.prov.Stat(r.Context(), path)
	if err != nil {
		h.logFailure(r, "Stat", path, err)
		respondWithError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, entry)
}

// CheckHealth stats the remote root; it backs the readiness probe.
func (h *GalleryHandler) CheckHealth(ctx context.Context) error {
	_, err := h.prov.Stat(ctx, "/")
	return err
}

func (h *GalleryHandler) logFailure(r *http.Request, op, path string, err error) {
	observability.CLILogger.Warn("Upstream request failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("upstream_status", provider.StatusCode(err)),
		zap.String("request_id", apperrors.RequestIDFromContext(r.Context())),
		zap.Error(err))
}

// queryPath defaults an empty path to the root.
func queryPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	return p
}
