package http

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	mysqlstore "go-secops-console-api/internal/connectors/mysql"
	"go-secops-console-api/internal/connectors/userprefs"
)

const defaultUserListLimit = 100

type createUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type chatMessageRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func usersHandler(store *mysqlstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "database integration disabled (set APP_DB_ENABLED=true)",
			})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultUserListLimit)
			role := r.URL.Query().Get("role")
			query := r.URL.Query().Get("q")

			start := time.Now()
			items, err := store.ListUsers(r.Context(), query, role, limit)
			recordDBQuery("mysql", "ListUsers", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list users"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"limit": limit, "count": len(items), "role": strings.TrimSpace(role)},
				"data": items,
			})
		case nethttp.MethodPost:
			var req createUserRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			start := time.Now()
			id, err := store.CreateUser(r.Context(), req.Name, req.Role)
			recordDBQuery("mysql", "CreateUser", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"created": true},
				"data": map[string]any{"id": id},
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func userDetailHandler(store *mysqlstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "database integration disabled (set APP_DB_ENABLED=true)",
			})
			return
		}

		idRaw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/users/"), "/")
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid user id"})
			return
		}

		if r.Method != nethttp.MethodDelete {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		start := time.Now()
		deleted, err := store.DeleteUser(r.Context(), id)
		recordDBQuery("mysql", "DeleteUser", time.Since(start).Seconds(), err)
		if err != nil {
			writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to delete user"})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"deleted": deleted, "id": id},
		})
	}
}

func preferencesHandler(store *userprefs.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "preferences store disabled (set APP_PREFS_SQLITE_PATH)",
			})
			return
		}

		session := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/preferences/"), "/")
		if session == "" {
			session = sessionID(r)
		}
		if session == "" {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "session id is required"})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			prefs, err := store.GetPreferences(r.Context(), session)
			recordDBQuery("prefssqlite", "GetPreferences", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to load preferences"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"session": session},
				"data": prefs,
			})
		case nethttp.MethodPut:
			var prefs userprefs.Preferences
			if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			start := time.Now()
			err := store.SetPreferences(r.Context(), session, prefs)
			recordDBQuery("prefssqlite", "SetPreferences", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to save preferences"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"session": session, "saved": true},
				"data": prefs,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func chatHandler(store *userprefs.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "chat store disabled (set APP_PREFS_SQLITE_PATH)",
			})
			return
		}

		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/chat/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "messages" {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		session := parts[0]

		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, 200)
			start := time.Now()
			items, err := store.ListMessages(r.Context(), session, limit)
			recordDBQuery("prefssqlite", "ListMessages", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list messages"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"session": session, "count": len(items)},
				"data": items,
			})
		case nethttp.MethodPost:
			var req chatMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			msg := userprefs.ChatMessage{
				ID:   uuid.NewString(),
				Role: strings.TrimSpace(req.Role),
				Text: req.Text,
			}
			start := time.Now()
			err := store.AppendMessage(r.Context(), session, msg)
			recordDBQuery("prefssqlite", "AppendMessage", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"session": session, "saved": true},
				"data": msg,
			})
		case nethttp.MethodDelete:
			start := time.Now()
			deleted, err := store.ClearMessages(r.Context(), session)
			recordDBQuery("prefssqlite", "ClearMessages", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to clear messages"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"session": session, "deleted": deleted},
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	return limit
}
