package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"sort"
	"time"

	"go-secops-console-api/internal/config"
	"go-secops-console-api/internal/connectors/inference"
	mysqlstore "go-secops-console-api/internal/connectors/mysql"
	"go-secops-console-api/internal/connectors/userprefs"
)

func servicesStatusHandler(usersStore *mysqlstore.Store, prefsStore *userprefs.Store, endpoints *config.Endpoints) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["mysql"] = mysqlStatus(ctx, usersStore)
		services["prefs_sqlite"] = prefsStatus(ctx, prefsStore)
		services["endpoints_config"] = endpointsConfigStatus(endpoints)

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func mysqlStatus(ctx context.Context, store *mysqlstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "database integration disabled"}
	}

	start := time.Now()
	stats, err := store.ServiceStats(ctx)
	recordDBQuery("mysql", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}

	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func prefsStatus(ctx context.Context, store *userprefs.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "preferences sqlite store disabled"}
	}

	start := time.Now()
	_, err := store.GetPreferences(ctx, "status-probe")
	recordDBQuery("prefssqlite", "GetPreferences", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true}
}

func endpointsConfigStatus(endpoints *config.Endpoints) map[string]any {
	keys := endpoints.Keys()
	configured := 0
	for _, key := range keys {
		if endpoints.Resolve(key) != config.NotConfigured {
			configured++
		}
	}
	return map[string]any{
		"enabled":    len(keys) > 0,
		"ok":         configured > 0,
		"configured": configured,
		"total":      len(keys),
	}
}

func endpointStatusHandler(endpoints *config.Endpoints, client *inference.Client) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		keys := endpoints.Keys()
		sort.Strings(keys)

		statuses := make([]inference.Status, 0, len(keys))
		reachable := 0
		for _, key := range keys {
			endpoint := endpoints.Resolve(key)
			if endpoint == config.NotConfigured {
				statuses = append(statuses, inference.Status{Key: key, Endpoint: endpoint})
				continue
			}
			start := time.Now()
			status := client.Probe(r.Context(), key, endpoint)
			var probeErr error
			if status.Error != "" {
				probeErr = errors.New(status.Error)
			}
			recordExternalProbe("inference", "Probe", time.Since(start).Seconds(), probeErr)
			if status.OK {
				reachable++
			}
			statuses = append(statuses, status)
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"generated_at": time.Now().UTC(),
				"total":        len(statuses),
				"reachable":    reachable,
			},
			"data": statuses,
		})
	}
}
