package history

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-secops-console-api/internal/normalize"
)

// Entry is one completed upload retained for the session.
type Entry struct {
	ID        string               `json:"id"`
	Domain    string               `json:"domain"`
	Module    string               `json:"module"`
	Timestamp time.Time            `json:"timestamp"`
	Summary   normalize.Summary    `json:"summary"`
	Counts    map[string]*float64  `json:"counts_map"`
	FileName  string               `json:"file_name,omitempty"`
	FileSize  string               `json:"file_size,omitempty"`
}

// Card is one rollup cell of the module metrics view.
type Card struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Accent string `json:"accent,omitempty"`
}

// Overview is the derived metrics view for one module. It is recomputed
// from the current history on every read and never cached.
type Overview struct {
	Cards []Card `json:"cards"`
	Note  string `json:"note,omitempty"`
}

type session struct {
	entries  []Entry
	lastSeen time.Time
}

// Store keeps per-session upload history in memory. Each session holds at
// most maxEntries entries across all modules; appending beyond that evicts
// the oldest entry regardless of which module it belongs to. Nothing is
// persisted.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*session
	maxEntries int
	idleExpiry time.Duration
	now        func() time.Time
}

func NewStore(maxEntries int, idleExpiry time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = 20
	}
	return &Store{
		sessions:   make(map[string]*session),
		maxEntries: maxEntries,
		idleExpiry: idleExpiry,
		now:        time.Now,
	}
}

// Append prepends an entry to the session's history and truncates to the
// per-session cap. A missing ID or timestamp is filled in.
func (s *Store) Append(sessionID string, e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.lastSeen = s.now()

	entries := make([]Entry, 0, len(sess.entries)+1)
	entries = append(entries, e)
	entries = append(entries, sess.entries...)
	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	sess.entries = entries
	return e
}

// ForModule returns the session's entries for one module, most recent first.
func (s *Store) ForModule(sessionID, domain, slug string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[sessionID]
	if sess == nil {
		return nil
	}
	sess.lastSeen = s.now()

	out := make([]Entry, 0, len(sess.entries))
	for _, e := range sess.entries {
		if e.Domain == domain && e.Module == slug {
			out = append(out, e)
		}
	}
	return out
}

// Purge drops sessions idle longer than the expiry. Returns the number of
// sessions removed.
func (s *Store) Purge() int {
	if s.idleExpiry <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleExpiry)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Overview derives the rollup cards for one module from the session's
// current history, or nil when the module has none.
func (s *Store) Overview(sessionID, domain, slug string) *Overview {
	entries := s.ForModule(sessionID, domain, slug)
	if len(entries) == 0 {
		return nil
	}

	total := len(entries)
	lastRun := formatTimestamp(entries)

	switch {
	case domain == "border-security" && slug == "drone-detection":
		alerts := countStatus(entries, normalize.StatusDetected)
		detections := numberValues(entries, "Detections")
		events := numberValues(entries, "Alert Events")
		return &Overview{
			Cards: []Card{
				{Label: "Total Sessions", Value: strconv.Itoa(total)},
				{Label: "Threat Alerts", Value: strconv.Itoa(alerts), Accent: dangerIf(alerts > 0)},
				{Label: "Detections Logged", Value: formatSum(detections)},
				{Label: "Alert Events", Value: formatSum(events)},
				{Label: "Avg Alerts", Value: formatAvg(events)},
				{Label: "Last Run", Value: lastRun},
			},
			Note: "Drone metrics are derived from uploads in this session.",
		}

	case domain == "video-analytics" && slug == "face-recognition":
		granted := countStatus(entries, normalize.StatusGranted)
		denied := total - granted
		known := numberValues(entries, "Known Faces")
		unknown := numberValues(entries, "Unknown Faces")
		return &Overview{
			Cards: []Card{
				{Label: "Total Sessions", Value: strconv.Itoa(total)},
				{Label: "Access Granted", Value: strconv.Itoa(granted), Accent: "success"},
				{Label: "Access Denied", Value: strconv.Itoa(denied), Accent: dangerIf(denied > 0)},
				{Label: "Avg Known Faces", Value: formatAvg(known)},
				{Label: "Avg Unknown Faces", Value: formatAvg(unknown)},
				{Label: "Last Run", Value: lastRun},
			},
			Note: "Metrics calculated from session history.",
		}

	case domain == "video-analytics" && slug == "anomaly-detection":
		restricted := countStatus(entries, normalize.StatusRestricted)
		restrictedEvents := numberValues(entries, "Restricted Events")
		detections := numberValues(entries, "Total Detections")
		return &Overview{
			Cards: []Card{
				{Label: "Total Sessions", Value: strconv.Itoa(total)},
				{Label: "Sessions with Alerts", Value: strconv.Itoa(restricted), Accent: dangerIf(restricted > 0)},
				{Label: "Restricted Events", Value: formatSum(restrictedEvents)},
				{Label: "Total Detections", Value: formatSum(detections)},
				{Label: "Avg Restricted Events", Value: formatAvg(restrictedEvents)},
				{Label: "Last Run", Value: lastRun},
			},
			Note: "Alert counts reflect uploads from this session only.",
		}

	case domain == "video-analytics" && slug == "weapon-detection":
		weaponSessions := countStatus(entries, normalize.StatusWeaponsDetected)
		weapons := numberValues(entries, "Weapons Found")
		detections := numberValues(entries, "Detections")
		weaponsSum := sum(weapons)
		return &Overview{
			Cards: []Card{
				{Label: "Total Sessions", Value: strconv.Itoa(total)},
				{Label: "Weapon Alerts", Value: strconv.Itoa(weaponSessions), Accent: dangerIf(weaponSessions > 0)},
				{Label: "Weapons Found", Value: formatFloat(weaponsSum), Accent: dangerIf(weaponsSum > 0)},
				{Label: "Total Detections", Value: formatSum(detections)},
				{Label: "Avg Weapons / Session", Value: formatAvg(weapons)},
				{Label: "Last Run", Value: lastRun},
			},
			Note: "Weapon statistics are aggregated from this session's uploads.",
		}
	}

	return &Overview{
		Cards: []Card{
			{Label: "Total Sessions", Value: strconv.Itoa(total)},
			{Label: "Last Run", Value: lastRun},
		},
	}
}

func countStatus(entries []Entry, status string) int {
	n := 0
	for _, e := range entries {
		if e.Summary.Status == status {
			n++
		}
	}
	return n
}

// numberValues collects the present numeric values for one count label.
// Entries where the field was absent (nil) are excluded entirely, so they
// count toward neither sums nor averages.
func numberValues(entries []Entry, label string) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		if v, ok := e.Counts[label]; ok && v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func formatSum(values []float64) string {
	return formatFloat(sum(values))
}

func formatAvg(values []float64) string {
	if len(values) == 0 {
		return "-"
	}
	return strconv.FormatFloat(sum(values)/float64(len(values)), 'f', 1, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTimestamp(entries []Entry) string {
	if len(entries) == 0 {
		return "—"
	}
	return entries[0].Timestamp.UTC().Format("2006-01-02 15:04:05")
}

func dangerIf(cond bool) string {
	if cond {
		return "danger"
	}
	return ""
}
