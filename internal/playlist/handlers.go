package playlist

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jiwonMe/slamslam/internal/metadata"
	"github.com/jiwonMe/slamslam/internal/ytid"
)

// handleGetPlaylist returns the full collection in display order:
// explicit sort_order first, creation order for entries never reordered.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.db.Query(ctx, `
		SELECT id, url, title, thumbnail_url, duration_label, added_at, added_by, sort_order
		FROM playlist_entries
		ORDER BY sort_order ASC NULLS LAST, added_at ASC
	`)
	if err != nil {
		log.Printf("slamslam: list entries: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.ThumbnailURL, &e.DurationLabel, &e.AddedAt, &e.AddedBy, &e.SortOrder); err != nil {
			log.Printf("slamslam: scan entry: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		log.Printf("slamslam: list entries rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		URL     string `json:"url"`
		AddedBy string `json:"addedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	videoID, ok := ytid.ExtractVideoID(body.URL)
	if !ok {
		writeError(w, http.StatusBadRequest, "not a valid YouTube URL")
		return
	}

	addedBy := strings.TrimSpace(body.AddedBy)
	if addedBy == "" {
		addedBy = anonymousLabel
	}

	// Metadata failures never block insertion; the entry gets the
	// placeholder record instead.
	info, err := s.meta.Lookup(ctx, videoID)
	if err != nil {
		log.Printf("slamslam: metadata lookup %s: %v", videoID, err)
		info = metadata.Fallback()
	}

	e := Entry{
		URL:           ytid.WatchURL(videoID),
		Title:         info.Title,
		ThumbnailURL:  info.ThumbnailURL,
		DurationLabel: info.DurationLabel,
		AddedAt:       time.Now().UnixMilli(),
		AddedBy:       addedBy,
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO playlist_entries (url, title, thumbnail_url, duration_label, added_at, added_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.URL, e.Title, e.ThumbnailURL, e.DurationLabel, e.AddedAt, e.AddedBy).Scan(&e.ID)
	if err != nil {
		log.Printf("slamslam: insert entry: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, EventEntryAdded, e)

	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "entry id is required")
		return
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM playlist_entries WHERE id = $1
	`, id); err != nil {
		log.Printf("slamslam: delete entry %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, EventEntryDeleted, map[string]string{"id": id})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleReorder assigns sort_order = position for every item in the request,
// in one transaction. Rows deleted concurrently are skipped; last writer
// wins at the row level.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Items == nil {
		writeError(w, http.StatusBadRequest, "a valid items array is required")
		return
	}
	for _, it := range body.Items {
		if strings.TrimSpace(it.ID) == "" {
			writeError(w, http.StatusBadRequest, "every item needs an id")
			return
		}
	}

	tx, err := s.db.BeginTx(ctx, pgxTxOptions())
	if err != nil {
		log.Printf("slamslam: reorder begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	updated := make([]Entry, 0, len(body.Items))
	for pos, it := range body.Items {
		var e Entry
		err := tx.QueryRow(ctx, `
			UPDATE playlist_entries
			SET sort_order = $2
			WHERE id = $1
			RETURNING id, url, title, thumbnail_url, duration_label, added_at, added_by, sort_order
		`, it.ID, pos).Scan(&e.ID, &e.URL, &e.Title, &e.ThumbnailURL, &e.DurationLabel, &e.AddedAt, &e.AddedBy, &e.SortOrder)
		if isNoRows(err) {
			continue
		}
		if err != nil {
			log.Printf("slamslam: reorder entry %s: %v", it.ID, err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		updated = append(updated, e)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("slamslam: reorder commit: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	// The update echoes let other clients converge on the new order.
	for _, e := range updated {
		s.publishEvent(ctx, EventEntryUpdated, e)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
