package metadata

import (
	"errors"
	"log"
	"net/http"
	"strings"
)

// Server exposes the same-origin metadata proxy endpoint.
type Server struct {
	src Source
}

func NewServer(src Source) *Server {
	return &Server{src: src}
}

// HandleGet serves GET /metadata?videoId=<id>.
func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	info, err := s.src.Lookup(r.Context(), videoID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		log.Printf("metadata: lookup %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch video info")
		return
	}

	writeJSON(w, http.StatusOK, info)
}
