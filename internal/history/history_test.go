package history

import (
	"fmt"
	"testing"
	"time"

	"go-secops-console-api/internal/normalize"
)

func fptr(v float64) *float64 { return &v }

func droneEntry(alerts *float64, detections *float64) Entry {
	status := normalize.StatusClear
	if alerts != nil && *alerts > 0 {
		status = normalize.StatusDetected
	}
	return Entry{
		Domain: "border-security",
		Module: "drone-detection",
		Summary: normalize.Summary{
			Description: "x",
			Status:      status,
		},
		Counts: map[string]*float64{
			"Detections":   detections,
			"Alert Events": alerts,
		},
	}
}

func TestAppend_GlobalCapEvictsOldestAcrossModules(t *testing.T) {
	s := NewStore(20, time.Hour)

	for i := 0; i < 19; i++ {
		s.Append("sess", droneEntry(fptr(0), fptr(float64(i))))
	}
	s.Append("sess", Entry{
		Domain: "video-analytics",
		Module: "weapon-detection",
		Summary: normalize.Summary{
			Status: normalize.StatusNoWeapons,
		},
	})
	// The 21st entry must evict the oldest regardless of module.
	s.Append("sess", droneEntry(fptr(1), fptr(99)))

	drone := s.ForModule("sess", "border-security", "drone-detection")
	weapon := s.ForModule("sess", "video-analytics", "weapon-detection")
	if len(drone)+len(weapon) != 20 {
		t.Fatalf("expected 20 entries total, got %d", len(drone)+len(weapon))
	}
	if len(weapon) != 1 {
		t.Fatalf("weapon entry should survive, got %d", len(weapon))
	}
	// Oldest drone entry (detections=0) is gone, newest (99) is first.
	if *drone[0].Counts["Detections"] != 99 {
		t.Fatalf("expected newest entry first, got %v", *drone[0].Counts["Detections"])
	}
	for _, e := range drone {
		if e.Counts["Detections"] != nil && *e.Counts["Detections"] == 0 {
			t.Fatal("oldest entry should have been evicted")
		}
	}
}

func TestAppend_FillsIDAndTimestamp(t *testing.T) {
	s := NewStore(20, time.Hour)

	e := s.Append("sess", droneEntry(fptr(0), fptr(1)))
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}
}

func TestForModule_FiltersByDomainAndModule(t *testing.T) {
	s := NewStore(20, time.Hour)

	s.Append("sess", Entry{Domain: "border-security", Module: "suspicious-activity"})
	s.Append("sess", Entry{Domain: "video-analytics", Module: "suspicious-activity"})

	border := s.ForModule("sess", "border-security", "suspicious-activity")
	video := s.ForModule("sess", "video-analytics", "suspicious-activity")
	if len(border) != 1 || len(video) != 1 {
		t.Fatalf("same slug in two domains must not mix, got %d/%d", len(border), len(video))
	}
}

func TestForModule_UnknownSession(t *testing.T) {
	s := NewStore(20, time.Hour)
	if got := s.ForModule("nope", "border-security", "drone-detection"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestOverview_DroneCards(t *testing.T) {
	s := NewStore(20, time.Hour)
	s.Append("sess", droneEntry(fptr(2), fptr(5)))
	s.Append("sess", droneEntry(fptr(0), fptr(3)))
	s.Append("sess", droneEntry(nil, fptr(4))) // absent alerts excluded from avg

	o := s.Overview("sess", "border-security", "drone-detection")
	if o == nil {
		t.Fatal("expected overview")
	}

	cards := map[string]Card{}
	for _, c := range o.Cards {
		cards[c.Label] = c
	}
	if cards["Total Sessions"].Value != "3" {
		t.Fatalf("unexpected total %q", cards["Total Sessions"].Value)
	}
	if cards["Threat Alerts"].Value != "1" || cards["Threat Alerts"].Accent != "danger" {
		t.Fatalf("unexpected threat alerts card %+v", cards["Threat Alerts"])
	}
	if cards["Detections Logged"].Value != "12" {
		t.Fatalf("unexpected detections %q", cards["Detections Logged"].Value)
	}
	// Mean over the two present values only: (2+0)/2.
	if cards["Avg Alerts"].Value != "1.0" {
		t.Fatalf("null-excluding mean broken, got %q", cards["Avg Alerts"].Value)
	}
}

func TestOverview_AvgDashWhenAllAbsent(t *testing.T) {
	s := NewStore(20, time.Hour)
	s.Append("sess", droneEntry(nil, nil))

	o := s.Overview("sess", "border-security", "drone-detection")
	for _, c := range o.Cards {
		if c.Label == "Avg Alerts" && c.Value != "-" {
			t.Fatalf("expected dash for empty mean, got %q", c.Value)
		}
	}
}

func TestOverview_FaceCards(t *testing.T) {
	s := NewStore(20, time.Hour)
	for i := 0; i < 3; i++ {
		status := normalize.StatusGranted
		if i == 2 {
			status = normalize.StatusDenied
		}
		s.Append("sess", Entry{
			Domain:  "video-analytics",
			Module:  "face-recognition",
			Summary: normalize.Summary{Status: status},
			Counts: map[string]*float64{
				"Known Faces":   fptr(float64(i + 1)),
				"Unknown Faces": fptr(1),
			},
		})
	}

	o := s.Overview("sess", "video-analytics", "face-recognition")
	cards := map[string]Card{}
	for _, c := range o.Cards {
		cards[c.Label] = c
	}
	if cards["Access Granted"].Value != "2" || cards["Access Granted"].Accent != "success" {
		t.Fatalf("unexpected granted card %+v", cards["Access Granted"])
	}
	if cards["Access Denied"].Value != "1" || cards["Access Denied"].Accent != "danger" {
		t.Fatalf("unexpected denied card %+v", cards["Access Denied"])
	}
	if cards["Avg Known Faces"].Value != "2.0" {
		t.Fatalf("unexpected avg %q", cards["Avg Known Faces"].Value)
	}
}

func TestOverview_DefaultCardsForGenericModule(t *testing.T) {
	s := NewStore(20, time.Hour)
	s.Append("sess", Entry{
		Domain:    "threat-intelligence",
		Module:    "dark-web-monitoring",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})

	o := s.Overview("sess", "threat-intelligence", "dark-web-monitoring")
	if len(o.Cards) != 2 {
		t.Fatalf("expected 2 default cards, got %d", len(o.Cards))
	}
	if o.Cards[1].Label != "Last Run" || o.Cards[1].Value != "2026-03-14 09:30:00" {
		t.Fatalf("unexpected last run card %+v", o.Cards[1])
	}
}

func TestOverview_NilWhenEmpty(t *testing.T) {
	s := NewStore(20, time.Hour)
	if o := s.Overview("sess", "border-security", "drone-detection"); o != nil {
		t.Fatalf("expected nil overview, got %+v", o)
	}
}

func TestPurge_DropsIdleSessionsOnly(t *testing.T) {
	s := NewStore(20, time.Hour)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Append("stale", droneEntry(fptr(0), fptr(1)))
	current = current.Add(2 * time.Hour)
	s.Append("fresh", droneEntry(fptr(0), fptr(1)))

	if removed := s.Purge(); removed != 1 {
		t.Fatalf("expected 1 purged session, got %d", removed)
	}
	if got := s.ForModule("stale", "border-security", "drone-detection"); got != nil {
		t.Fatal("stale session should be gone")
	}
	if got := s.ForModule("fresh", "border-security", "drone-detection"); len(got) != 1 {
		t.Fatalf("fresh session should survive, got %d", len(got))
	}
}

func TestPerSessionIsolation(t *testing.T) {
	s := NewStore(20, time.Hour)
	for i := 0; i < 5; i++ {
		s.Append(fmt.Sprintf("sess-%d", i), droneEntry(fptr(0), fptr(1)))
	}
	for i := 0; i < 5; i++ {
		if got := s.ForModule(fmt.Sprintf("sess-%d", i), "border-security", "drone-detection"); len(got) != 1 {
			t.Fatalf("session %d should hold exactly its own entry, got %d", i, len(got))
		}
	}
}
