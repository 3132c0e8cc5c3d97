package http

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"go-secops-console-api/internal/config"
	"go-secops-console-api/internal/connectors/inference"
	"go-secops-console-api/internal/dispatch"
	"go-secops-console-api/internal/history"
	"go-secops-console-api/internal/modules"
	"go-secops-console-api/internal/normalize"
)

func configHandler(endpoints *config.Endpoints, apiBase string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		resolved := map[string]string{}
		configured := 0
		for _, info := range modules.Domains() {
			for _, desc := range modules.ForDomain(info.Key) {
				endpoint := endpoints.Resolve(desc.EndpointKey)
				resolved[desc.EndpointKey] = endpoint
				if endpoint != config.NotConfigured {
					configured++
				}
			}
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"configured": configured,
				"total":      len(resolved),
			},
			"data": map[string]any{
				"api_base":  apiBase,
				"endpoints": resolved,
			},
		})
	}
}

func domainsHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		items := modules.Domains()
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(items)},
			"data": items,
		})
	}
}

func domainModulesHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/domains/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[1] != "modules" || !modules.ValidDomain(parts[0]) {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		items := modules.ForDomain(modules.Domain(parts[0]))
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"domain": parts[0], "count": len(items)},
			"data": items,
		})
	}
}

type moduleRouterDeps struct {
	endpoints      *config.Endpoints
	apiBase        string
	dispatcher     *dispatch.Dispatcher
	history        *history.Store
	analyzeClient  *inference.Client
	maxUploadBytes int64
}

func moduleRouter(deps moduleRouterDeps) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/modules/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 3 || !modules.ValidDomain(parts[0]) {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		domain := parts[0]
		desc, ok := modules.Get(modules.Domain(domain), parts[1])
		if !ok {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "unknown module"})
			return
		}

		switch parts[2] {
		case "upload":
			if r.Method != nethttp.MethodPost {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			handleModuleUpload(deps, w, r, domain, desc)
		case "cancel":
			if r.Method != nethttp.MethodPost {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			cancelled := deps.dispatcher.Cancel(sessionID(r), domain, desc.Slug)
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"domain": domain, "module": desc.Slug, "cancelled": cancelled},
			})
		case "history":
			if r.Method != nethttp.MethodGet {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			entries := deps.history.ForModule(sessionID(r), domain, desc.Slug)
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"domain": domain, "module": desc.Slug, "count": len(entries)},
				"data": entries,
			})
		case "metrics":
			if r.Method != nethttp.MethodGet {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			overview := deps.history.Overview(sessionID(r), domain, desc.Slug)
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"domain": domain, "module": desc.Slug},
				"data": overview,
			})
		case "analyze":
			if r.Method != nethttp.MethodGet {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			if domain != string(modules.ThreatIntelligence) || desc.Slug != "email-protection" {
				writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
				return
			}
			handleEmailAnalyze(deps, w, r, domain, desc)
		default:
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
		}
	}
}

func handleModuleUpload(deps moduleRouterDeps, w nethttp.ResponseWriter, r *nethttp.Request, domain string, desc modules.Descriptor) {
	endpoint := deps.endpoints.Resolve(desc.EndpointKey)

	r.Body = nethttp.MaxBytesReader(w, r.Body, deps.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "a multipart \"file\" field is required"})
		return
	}
	defer file.Close()

	if desc.Slug == "intrusion-detection" && strings.ToLower(filepath.Ext(header.Filename)) != ".csv" {
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "Please upload a CSV dataset (.csv)"})
		return
	}

	session := sessionID(r)
	fileSize := humanize.Bytes(uint64(header.Size))

	var summary *normalize.Summary
	commit := func(payload []byte) {
		summary = normalize.BuildSummary(domain, desc.Slug, payload)
		if summary == nil {
			return
		}
		deps.history.Append(session, history.Entry{
			Domain:    domain,
			Module:    desc.Slug,
			Timestamp: time.Now().UTC(),
			Summary:   *summary,
			Counts:    summary.CountsMap(),
			FileName:  header.Filename,
			FileSize:  fileSize,
		})
	}

	start := time.Now()
	payload, err := deps.dispatcher.Upload(r.Context(), session, domain, desc.Slug, endpoint, header.Filename, file, commit)
	elapsed := time.Since(start)
	recordExternalProbe("inference", "Upload", elapsed.Seconds(), err)

	meta := map[string]any{
		"domain":      domain,
		"module":      desc.Slug,
		"file_name":   header.Filename,
		"file_size":   fileSize,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch {
	case errors.Is(err, dispatch.ErrNotConfigured):
		recordUploadRun(domain, desc.Slug, "not_configured", elapsed.Seconds())
		writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{"error": "API configuration not ready"})
		return
	case errors.Is(err, dispatch.ErrCancelled):
		recordUploadRun(domain, desc.Slug, "cancelled", elapsed.Seconds())
		meta["cancelled"] = true
		writeJSON(w, nethttp.StatusOK, map[string]any{"meta": meta})
		return
	case err != nil:
		recordUploadRun(domain, desc.Slug, "error", elapsed.Seconds())
		var apiErr *inference.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error":           apiErr.Detail,
				"upstream_status": apiErr.StatusCode,
			})
			return
		}
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to reach module endpoint"})
		return
	}
	recordUploadRun(domain, desc.Slug, "success", elapsed.Seconds())

	if summary == nil {
		summary = normalize.BuildSummary(domain, desc.Slug, payload)
	}

	data := map[string]any{
		"payload": json.RawMessage(payload),
		"summary": summary,
		"media":   normalize.ExtractMedia(payload, deps.apiBase),
	}
	switch {
	case domain == string(modules.BorderSecurity) && desc.Slug == "drone-detection":
		data["metrics"] = normalize.ExtractDroneMetrics(payload)
	case domain == string(modules.BorderSecurity) && desc.Slug == "suspicious-activity":
		data["metrics"] = normalize.ExtractSuspiciousMetrics(payload)
	case domain == string(modules.VideoAnalytics) && desc.Slug == "face-recognition":
		data["authorization"] = normalize.EvaluateAuthorization(payload)
	case domain == string(modules.VideoAnalytics) && desc.Slug == "anomaly-detection":
		data["metrics"] = normalize.ExtractAnomalyMetrics(payload)
	case domain == string(modules.VideoAnalytics) && desc.Slug == "weapon-detection":
		data["metrics"] = normalize.ExtractWeaponMetrics(payload)
	case domain == string(modules.ThreatIntelligence) && desc.Slug == "intrusion-detection":
		data["run"] = normalize.SummarizeIDSRun(payload)
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": meta,
		"data": data,
	})
}

func handleEmailAnalyze(deps moduleRouterDeps, w nethttp.ResponseWriter, r *nethttp.Request, domain string, desc modules.Descriptor) {
	endpoint := deps.endpoints.Resolve(desc.EndpointKey)
	if endpoint == config.NotConfigured {
		writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{"error": "API configuration not ready"})
		return
	}
	if q := r.URL.RawQuery; q != "" {
		endpoint = endpoint + "?" + q
	}

	start := time.Now()
	payload, err := deps.analyzeClient.Analyze(r.Context(), endpoint)
	recordExternalProbe("inference", "Analyze", time.Since(start).Seconds(), err)
	if err != nil {
		var apiErr *inference.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error":           apiErr.Detail,
				"upstream_status": apiErr.StatusCode,
			})
			return
		}
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to reach module endpoint"})
		return
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{"domain": domain, "module": desc.Slug},
		"data": map[string]any{
			"payload": json.RawMessage(payload),
			"run":     normalize.SummarizeEmailRun(payload),
		},
	})
}
