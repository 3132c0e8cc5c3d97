package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Module summary statuses. Which values apply depends on the module.
const (
	StatusDetected        = "detected"
	StatusClear           = "clear"
	StatusGranted         = "granted"
	StatusDenied          = "denied"
	StatusRestricted      = "restricted"
	StatusWeaponsDetected = "weapons-detected"
	StatusNoWeapons       = "no-weapons"
)

const maxLabels = 12

// Count is one labeled numeric cell of a summary. Value is nil when the
// source field was absent or non-numeric; a present zero stays zero.
type Count struct {
	Label     string   `json:"label"`
	Value     *float64 `json:"value"`
	Highlight bool     `json:"highlight,omitempty"`
}

// Summary is the fixed-shape view derived from one upload response.
type Summary struct {
	Description string  `json:"description"`
	Counts      []Count `json:"counts"`
	Status      string  `json:"status,omitempty"`
}

// CountsMap flattens the counts for rollup lookups by label.
func (s *Summary) CountsMap() map[string]*float64 {
	out := make(map[string]*float64, len(s.Counts))
	for _, c := range s.Counts {
		out[c.Label] = c.Value
	}
	return out
}

// DroneMetrics are the extracted fields of a drone-detection response.
type DroneMetrics struct {
	Detections  *float64 `json:"detections"`
	AlertEvents *float64 `json:"alert_events"`
	Labels      []string `json:"labels"`
}

// SuspiciousMetrics are the extracted fields of a border suspicious-activity
// response.
type SuspiciousMetrics struct {
	Detections           *float64 `json:"detections"`
	Alerts               *float64 `json:"alerts"`
	FramesProcessed      *float64 `json:"frames_processed"`
	SuspiciousPercentage *float64 `json:"suspicious_percentage"`
	Labels               []string `json:"labels"`
}

// AnomalyMetrics are the extracted fields of an anomaly-detection response.
type AnomalyMetrics struct {
	Detections       *float64 `json:"detections"`
	RestrictedEvents *float64 `json:"restricted_events"`
	FramesProcessed  *float64 `json:"frames_processed"`
	Labels           []string `json:"labels"`
}

// WeaponMetrics are the extracted fields of a weapon-detection response.
type WeaponMetrics struct {
	Detections      *float64 `json:"detections"`
	WeaponsFound    *float64 `json:"weapons_found"`
	FramesProcessed *float64 `json:"frames_processed"`
	Labels          []string `json:"labels"`
}

// Authorization is the outcome of scanning a face-recognition response for
// authorization signals. Found reports whether any signal was present at
// all; Granted whether any evaluated truthy.
type Authorization struct {
	Found   bool `json:"found"`
	Granted bool `json:"granted"`
}

// BuildSummary converts a raw upload response into the module's summary, or
// nil when the payload carries nothing the module recognizes. It never
// fails: absent or malformed data degrades to nil fields.
func BuildSummary(domain, slug string, payload []byte) *Summary {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}

	switch {
	case domain == "border-security" && slug == "drone-detection":
		return droneSummary(root)
	case domain == "border-security" && slug == "suspicious-activity":
		return suspiciousSummary(root)
	case domain == "video-analytics" && slug == "face-recognition":
		return faceSummary(root)
	case domain == "video-analytics" && slug == "anomaly-detection":
		return anomalySummary(root)
	case domain == "video-analytics" && slug == "weapon-detection":
		return weaponSummary(root)
	default:
		return genericSummary(root)
	}
}

// ExtractDroneMetrics probes a drone-detection payload.
func ExtractDroneMetrics(payload []byte) *DroneMetrics {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}
	return droneMetrics(root)
}

// ExtractSuspiciousMetrics probes a border suspicious-activity payload.
func ExtractSuspiciousMetrics(payload []byte) *SuspiciousMetrics {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}
	return suspiciousMetrics(root)
}

// ExtractAnomalyMetrics probes an anomaly-detection payload. It requires a
// summary object and returns nil without one.
func ExtractAnomalyMetrics(payload []byte) *AnomalyMetrics {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}
	return anomalyMetrics(root)
}

// ExtractWeaponMetrics probes a weapon-detection payload. It requires a
// summary object and returns nil without one.
func ExtractWeaponMetrics(payload []byte) *WeaponMetrics {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}
	return weaponMetrics(root)
}

// EvaluateAuthorization scans a face-recognition payload for authorization
// signals: explicit booleans at the top level or under summary, positive
// authorized counts, per-detection flags, and authorized_events entries. An
// authorized_events entry without an explicit authorized flag counts as a
// grant, matching backend behavior for successful matches.
func EvaluateAuthorization(payload []byte) Authorization {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return Authorization{}
	}
	return evaluateAuthorization(root)
}

func evaluateAuthorization(root gjson.Result) Authorization {
	var out Authorization
	considerBool := func(r gjson.Result) {
		if r.Type == gjson.True || r.Type == gjson.False {
			out.Found = true
			if r.Bool() {
				out.Granted = true
			}
		}
	}
	considerCount := func(r gjson.Result) {
		if r.Type == gjson.Number {
			out.Found = true
			if r.Num > 0 {
				out.Granted = true
			}
		}
	}

	considerBool(root.Get("authorized"))
	considerBool(root.Get("accessGranted"))
	considerBool(root.Get("grant_access"))

	summary := root.Get("summary")
	if !summary.IsObject() {
		return out
	}

	considerBool(summary.Get("authorized"))
	considerCount(summary.Get("authorized_count"))
	considerCount(summary.Get("known_faces"))
	considerCount(summary.Get("authorized_events_total"))

	if dets := summary.Get("detections"); dets.IsArray() {
		found := false
		dets.ForEach(func(_, det gjson.Result) bool {
			if !det.IsObject() {
				return true
			}
			auth := det.Get("authorized")
			if auth.Type == gjson.True || auth.Type == gjson.False {
				found = true
				if auth.Bool() {
					out.Granted = true
				}
			}
			return true
		})
		if found {
			out.Found = true
		}
	}

	if events := summary.Get("authorized_events"); events.IsArray() {
		found := false
		events.ForEach(func(_, evt gjson.Result) bool {
			if !evt.IsObject() {
				return true
			}
			found = true
			auth := evt.Get("authorized")
			if auth.Type == gjson.True || auth.Type == gjson.False {
				if auth.Bool() {
					out.Granted = true
				}
			} else {
				out.Granted = true
			}
			return true
		})
		if found {
			out.Found = true
		}
	}

	return out
}

func droneSummary(root gjson.Result) *Summary {
	m := droneMetrics(root)
	if m == nil {
		return nil
	}
	detected := m.AlertEvents != nil && *m.AlertEvents > 0
	desc := "No drone threats detected"
	status := StatusClear
	if detected {
		desc = "Drone threat detected"
		status = StatusDetected
	}
	return &Summary{
		Description: desc,
		Counts: []Count{
			{Label: "Detections", Value: m.Detections},
			{Label: "Alert Events", Value: m.AlertEvents, Highlight: true},
		},
		Status: status,
	}
}

func suspiciousSummary(root gjson.Result) *Summary {
	m := suspiciousMetrics(root)
	if m == nil {
		return nil
	}
	detected := m.Alerts != nil && *m.Alerts > 0
	desc := "Area clear"
	status := StatusClear
	if detected {
		desc = "Suspicious behaviour detected"
		status = StatusDetected
	}
	return &Summary{
		Description: desc,
		Counts: []Count{
			{Label: "Detections", Value: m.Detections},
			{Label: "Alerts", Value: m.Alerts, Highlight: true},
			{Label: "Suspicious %", Value: m.SuspiciousPercentage},
		},
		Status: status,
	}
}

func faceSummary(root gjson.Result) *Summary {
	summary := root.Get("summary")
	if !summary.IsObject() {
		return nil
	}
	auth := evaluateAuthorization(root)

	faces := firstNumber(summary, "detections_count", "faces_detected")
	known := firstNumber(summary, "authorized_count", "known_faces")
	unknown := firstNumber(summary, "unknown_faces")

	desc := "Access Denied"
	status := StatusDenied
	if auth.Granted {
		desc = "Access Granted"
		status = StatusGranted
	}
	return &Summary{
		Description: desc,
		Counts: []Count{
			{Label: "Faces Detected", Value: faces},
			{Label: "Known Faces", Value: known, Highlight: true},
			{Label: "Unknown Faces", Value: unknown},
		},
		Status: status,
	}
}

func anomalySummary(root gjson.Result) *Summary {
	m := anomalyMetrics(root)
	if m == nil {
		return nil
	}
	restricted := m.RestrictedEvents != nil && *m.RestrictedEvents > 0
	desc := "No restricted movement detected"
	status := StatusClear
	if restricted {
		desc = "Restricted activity detected"
		status = StatusRestricted
	}
	return &Summary{
		Description: desc,
		Counts: []Count{
			{Label: "Total Detections", Value: m.Detections},
			{Label: "Restricted Events", Value: m.RestrictedEvents, Highlight: true},
			{Label: "Frames Processed", Value: m.FramesProcessed},
		},
		Status: status,
	}
}

func weaponSummary(root gjson.Result) *Summary {
	m := weaponMetrics(root)
	if m == nil {
		return nil
	}
	armed := m.WeaponsFound != nil && *m.WeaponsFound > 0
	desc := "No weapons identified"
	status := StatusNoWeapons
	if armed {
		desc = "Weapon activity detected"
		status = StatusWeaponsDetected
	}
	return &Summary{
		Description: desc,
		Counts: []Count{
			{Label: "Detections", Value: m.Detections},
			{Label: "Weapons Found", Value: m.WeaponsFound, Highlight: true},
			{Label: "Frames Processed", Value: m.FramesProcessed},
		},
		Status: status,
	}
}

// genericSummary scans summary keys ending in "count" in document order,
// keeping up to three.
func genericSummary(root gjson.Result) *Summary {
	summary := root.Get("summary")
	if !summary.IsObject() {
		return nil
	}

	counts := make([]Count, 0, 3)
	summary.ForEach(func(key, value gjson.Result) bool {
		if len(counts) == 3 {
			return false
		}
		if strings.HasSuffix(key.String(), "count") && value.Type == gjson.Number {
			v := value.Num
			counts = append(counts, Count{Label: titleCase(key.String()), Value: &v})
		}
		return true
	})
	if len(counts) == 0 {
		return nil
	}

	desc := "Upload processed"
	if d := summary.Get("description"); d.Type == gjson.String {
		desc = d.String()
	}
	return &Summary{Description: desc, Counts: counts}
}

func droneMetrics(root gjson.Result) *DroneMetrics {
	base := scope(root)
	return &DroneMetrics{
		Detections: chainNumber(root, base,
			[]string{"detections_count", "detections_total", "drones_detected"},
			[]string{"detections_count", "detections_total"}),
		AlertEvents: chainNumber(root, base,
			[]string{"alert_events", "restricted_event_count"},
			[]string{"alert_events", "restricted_event_count"}),
		Labels: detectionLabels(root, base),
	}
}

func suspiciousMetrics(root gjson.Result) *SuspiciousMetrics {
	base := scope(root)
	return &SuspiciousMetrics{
		Detections: chainNumber(root, base,
			[]string{"detections_total", "detections_count"},
			[]string{"detections_total", "detections_count"}),
		Alerts: chainNumber(root, base,
			[]string{"alert_events", "restricted_event_total"},
			[]string{"alert_events", "restricted_event_total"}),
		FramesProcessed: chainNumber(root, base,
			[]string{"frames_processed"},
			[]string{"frames_processed"}),
		SuspiciousPercentage: chainNumber(root, base,
			[]string{"suspicious_percentage"},
			[]string{"suspicious_percentage"}),
		Labels: detectionLabels(root, base),
	}
}

func anomalyMetrics(root gjson.Result) *AnomalyMetrics {
	summary := root.Get("summary")
	if !summary.IsObject() {
		return nil
	}

	labels := newLabelSet()
	if dets := summary.Get("detections"); dets.IsArray() {
		dets.ForEach(func(_, det gjson.Result) bool {
			if det.IsObject() {
				labels.addTrimmed(det.Get("label"))
			}
			return true
		})
	}
	forEachObject(summary.Get("restricted_events"), 5, func(evt gjson.Result) {
		labels.addTrimmed(evt.Get("label"))
	})
	forEachObject(summary.Get("sample_detections"), 5, func(entry gjson.Result) {
		if items := entry.Get("items"); items.IsArray() {
			items.ForEach(func(_, det gjson.Result) bool {
				if det.IsObject() {
					labels.addTrimmed(det.Get("label"))
				}
				return true
			})
		}
	})

	return &AnomalyMetrics{
		Detections:       firstNumber(summary, "detections_count", "detections_total"),
		RestrictedEvents: firstNumber(summary, "restricted_event_count", "restricted_event_total"),
		FramesProcessed:  firstNumber(summary, "frames_processed"),
		Labels:           labels.list(),
	}
}

func weaponMetrics(root gjson.Result) *WeaponMetrics {
	summary := root.Get("summary")
	if !summary.IsObject() {
		return nil
	}

	labels := newLabelSet()
	flatten := func(items gjson.Result) {
		if !items.IsArray() {
			return
		}
		items.ForEach(func(_, det gjson.Result) bool {
			if det.IsObject() {
				labels.addTrimmed(det.Get("label"))
			}
			return true
		})
	}
	flatten(summary.Get("detections"))
	flatten(summary.Get("weapon_detections"))
	forEachObject(summary.Get("sample_detections"), 5, func(entry gjson.Result) {
		flatten(entry.Get("items"))
	})

	return &WeaponMetrics{
		Detections:      firstNumber(summary, "detections_count", "detections_total"),
		WeaponsFound:    firstNumber(summary, "weapons_detected", "authorized_count"),
		FramesProcessed: firstNumber(summary, "frames_processed"),
		Labels:          labels.list(),
	}
}

// scope returns the summary object when present, else the payload itself.
func scope(root gjson.Result) gjson.Result {
	if s := root.Get("summary"); s.IsObject() {
		return s
	}
	return root
}

// chainNumber tries scoped keys first, then top-level fallbacks, returning
// the first numeric hit. Zero is a hit; a missing key is not.
func chainNumber(root, base gjson.Result, scopedKeys, topKeys []string) *float64 {
	if v := firstNumber(base, scopedKeys...); v != nil {
		return v
	}
	return firstNumber(root, topKeys...)
}

func firstNumber(obj gjson.Result, keys ...string) *float64 {
	for _, key := range keys {
		if r := obj.Get(key); r.Type == gjson.Number {
			v := r.Num
			return &v
		}
	}
	return nil
}

// detectionLabels unions object labels from the detections array (scoped
// first, else top-level) with the flat top-level labels array.
func detectionLabels(root, base gjson.Result) []string {
	labels := newLabelSet()

	dets := base.Get("detections")
	if !dets.IsArray() {
		dets = root.Get("detections")
	}
	if dets.IsArray() {
		dets.ForEach(func(_, det gjson.Result) bool {
			if det.IsObject() {
				if l := det.Get("label"); l.Type == gjson.String {
					labels.add(l.String())
				}
			}
			return true
		})
	}

	if flat := root.Get("labels"); flat.IsArray() {
		flat.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				labels.add(v.String())
			}
			return true
		})
	}

	return labels.list()
}

func forEachObject(arr gjson.Result, limit int, fn func(gjson.Result)) {
	if !arr.IsArray() {
		return
	}
	n := 0
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		fn(item)
		n++
		return n < limit
	})
}

type labelSet struct {
	seen map[string]struct{}
	out  []string
}

func newLabelSet() *labelSet {
	return &labelSet{seen: make(map[string]struct{})}
}

func (s *labelSet) add(label string) {
	if label == "" {
		return
	}
	if _, ok := s.seen[label]; ok {
		return
	}
	s.seen[label] = struct{}{}
	s.out = append(s.out, label)
}

func (s *labelSet) addTrimmed(r gjson.Result) {
	if r.Type == gjson.String {
		s.add(strings.TrimSpace(r.String()))
	}
}

func (s *labelSet) list() []string {
	if len(s.out) > maxLabels {
		return s.out[:maxLabels]
	}
	return s.out
}

func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
