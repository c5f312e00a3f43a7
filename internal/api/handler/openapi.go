package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
)

// OpenAPIHandler serves the API document as JSON. The document is converted
// once and tagged with a content hash so clients can revalidate cheaply.
type OpenAPIHandler struct {
	yamlDoc []byte

	once    sync.Once
	jsonDoc []byte
	etag    string
	err     error
}

// NewOpenAPIHandler creates a handler for the YAML document doc.
func NewOpenAPIHandler(doc []byte) *OpenAPIHandler {
	return &OpenAPIHandler{yamlDoc: doc}
}

func (h *OpenAPIHandler) load() {
	h.jsonDoc, h.err = yaml.YAMLToJSON(h.yamlDoc)
	if h.err != nil {
		return
	}
	sum := sha256.Sum256(h.jsonDoc)
	h.etag = `"` + hex.EncodeToString(sum[:12]) + `"`
}

// ServeHTTP writes the JSON document, or 304 when If-None-Match carries its ETag.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.load)

	if h.err != nil {
		response.Internal(w, "failed to convert OpenAPI document to JSON", h.err, middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")

	if etagMatches(r.Header.Get("If-None-Match"), h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonDoc); err != nil {
		slog.Warn("failed to write OpenAPI response", "error", err)
	}
}

// etagMatches reports whether an If-None-Match header lists etag, ignoring
// weak prefixes.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
