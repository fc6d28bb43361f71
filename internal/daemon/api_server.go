package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediavault/internal/api"
	"mediavault/internal/config"
	"mediavault/internal/faults"
	"mediavault/internal/logging"
	"mediavault/internal/media"
	"mediavault/internal/store"
)

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	daemon  *Daemon
	service *api.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, service *api.Service, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	srv := &apiServer{
		bind:    bind,
		token:   cfg.Paths.APIToken,
		logger:  logging.WithComponent(logger, "api-server"),
		daemon:  d,
		service: service,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/scan", srv.handleScan)
	mux.HandleFunc("/api/dedupe", srv.handleDedupe)
	mux.HandleFunc("/api/files", srv.handleFiles)
	mux.HandleFunc("/api/files/", srv.handleFileItem)
	mux.HandleFunc("/api/groups", srv.handleGroups)
	mux.HandleFunc("/api/groups/", srv.handleGroupItem)
	mux.HandleFunc("/api/pending", srv.handlePending)
	mux.HandleFunc("/api/pending/", srv.handlePendingItem)
	mux.HandleFunc("/api/purge", srv.handlePurge)
	mux.HandleFunc("/api/history", srv.handleHistory)

	srv.server = &http.Server{
		Handler:           srv.authenticate(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// authenticate enforces the configured bearer token. An empty token leaves
// the API open, which is the default for loopback binds.
func (s *apiServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+s.token {
				s.writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatusView{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Stats:        stats,
	})
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Paths []string `json:"paths"`
		Type  string   `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	scanType := media.ScanIncremental
	if req.Type != "" {
		parsed, ok := media.ParseScanType(req.Type)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "scan type must be full or incremental")
			return
		}
		scanType = parsed
	}
	view, err := s.service.Scan(r.Context(), req.Paths, scanType)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleDedupe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := s.service.Deduplicate(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	filter := store.FileFilter{
		IncludeDeleted: query.Get("deleted") == "1" || strings.EqualFold(query.Get("deleted"), "true"),
	}
	if mt := strings.TrimSpace(query.Get("type")); mt != "" {
		filter.MediaType = media.ParseType(mt)
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	files, err := s.service.ListFiles(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FileListResponse{Files: files})
}

func (s *apiServer) handleFileItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/files/")
	id, action, ok := splitIDAction(rest)
	if !ok {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}

	if action != "" || r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := s.service.GetFile(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	includeDismissed := r.URL.Query().Get("dismissed") == "1" ||
		strings.EqualFold(r.URL.Query().Get("dismissed"), "true")
	groups, err := s.service.ListGroups(r.Context(), includeDismissed)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.GroupListResponse{Groups: groups})
}

func (s *apiServer) handleGroupItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/groups/")
	id, action, ok := splitIDAction(rest)
	if !ok {
		s.writeError(w, http.StatusNotFound, "group not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		view, err := s.service.GetGroup(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, view)
	case action == "dismiss" && r.Method == http.MethodPost:
		if err := s.service.DismissGroup(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
	case strings.HasPrefix(action, "keep/") && r.Method == http.MethodPost:
		fileID, err := strconv.ParseInt(strings.TrimPrefix(action, "keep/"), 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid file id")
			return
		}
		if err := s.service.SetKeeper(r.Context(), id, fileID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handlePending(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		approvedOnly := r.URL.Query().Get("approved") == "1" ||
			strings.EqualFold(r.URL.Query().Get("approved"), "true")
		rows, err := s.service.ListPending(r.Context(), approvedOnly)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.PendingListResponse{Pending: rows})
	case http.MethodPost:
		var req struct {
			FileID  int64  `json:"fileId"`
			Reason  string `json:"reason"`
			GroupID int64  `json:"groupId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FileID <= 0 {
			s.writeError(w, http.StatusBadRequest, "fileId is required")
			return
		}
		if req.Reason == "" {
			req.Reason = "staged by operator"
		}
		view, err := s.service.Stage(r.Context(), req.FileID, req.Reason, req.GroupID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, view)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handlePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := s.service.PurgeApproved(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handlePendingItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/pending/")
	id, action, ok := splitIDAction(rest)
	if !ok {
		s.writeError(w, http.StatusNotFound, "pending deletion not found")
		return
	}
	switch action {
	case "approve":
		if err := s.service.Approve(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
	case "restore":
		if err := s.service.Restore(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
	default:
		s.writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	scans, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Scans: scans})
}

// splitIDAction parses "<id>" or "<id>/<action...>" path remainders.
func splitIDAction(rest string) (int64, string, bool) {
	if rest == "" {
		return 0, "", false
	}
	idStr := rest
	action := ""
	if idx := strings.Index(rest, "/"); idx >= 0 {
		idStr = rest[:idx]
		action = rest[idx+1:]
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, action, true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	message := faults.Reason(err)
	switch {
	case errors.Is(err, faults.ErrNotFound):
		s.writeError(w, http.StatusNotFound, message)
	case errors.Is(err, faults.ErrStagingConflict):
		s.writeError(w, http.StatusConflict, message)
	case errors.Is(err, faults.ErrValidation):
		s.writeError(w, http.StatusBadRequest, message)
	default:
		s.writeError(w, http.StatusInternalServerError, message)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
