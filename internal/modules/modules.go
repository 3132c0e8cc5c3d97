package modules

// Domain is a grouping of detection modules shown as one console section.
type Domain string

const (
	ThreatIntelligence Domain = "threat-intelligence"
	VideoAnalytics     Domain = "video-analytics"
	BorderSecurity     Domain = "border-security"
)

// Descriptor identifies one detection capability bound to a configured
// inference endpoint. Descriptors are static; nothing creates or destroys
// them at runtime.
type Descriptor struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	EndpointKey string `json:"endpoint_key"`
}

// DomainInfo is the catalog entry for one domain.
type DomainInfo struct {
	Key     Domain `json:"key"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

var domainCatalog = []DomainInfo{
	{
		Key:     ThreatIntelligence,
		Title:   "Threat Intelligence AI",
		Summary: "Automated threat intel across communication channels, social platforms, and dark web surface.",
	},
	{
		Key:     VideoAnalytics,
		Title:   "Video Surveillance Analytics",
		Summary: "Real-time vision analytics for restricted zones, anomaly detection, weapons, and crowd dynamics.",
	},
	{
		Key:     BorderSecurity,
		Title:   "Border Anomaly Detection",
		Summary: "Persistent border monitoring including drones, vehicles (ANPR), night thermal detection and anomalies.",
	},
}

var catalog = map[Domain][]Descriptor{
	ThreatIntelligence: {
		{Slug: "email-protection", Title: "Email Protection", Description: "Detect phishing, malware payloads and spoofed senders.", EndpointKey: "threat.emailProtection"},
		{Slug: "intrusion-detection", Title: "Intrusion Detection", Description: "Network IDS patterns, signatures, and anomaly alerts.", EndpointKey: "threat.intrusionDetection"},
		{Slug: "discord-detection", Title: "Discord Detection", Description: "Monitor Discord channels for malicious links and C2.", EndpointKey: "threat.discordDetection"},
		{Slug: "telegram-analysis", Title: "Telegram Analysis", Description: "Analyze Telegram groups for threat chatter and drops.", EndpointKey: "threat.telegramAnalysis"},
		{Slug: "dark-web-monitoring", Title: "Dark Web Monitoring", Description: "Track dumps, leaks, and sale of credentials.", EndpointKey: "threat.darkWebMonitoring"},
		{Slug: "social-media-analysis", Title: "Social Media Analysis", Description: "Sentiment and threat narratives across platforms.", EndpointKey: "threat.socialMediaAnalysis"},
		{Slug: "malware-ioc-correlation", Title: "Malware IOCs Correlation", Description: "Link IOCs across sources to uncover campaigns.", EndpointKey: "threat.malwareIocCorrelation"},
	},
	VideoAnalytics: {
		{Slug: "face-recognition", Title: "Face Recognition", Description: "Identify persons in restricted zones with watchlists.", EndpointKey: "video.faceRecognition"},
		{Slug: "anomaly-detection", Title: "Anomaly Detection", Description: "Detect unusual motion or behavior in live feeds.", EndpointKey: "video.anomalyDetection"},
		{Slug: "weapon-detection", Title: "Weapon Detection", Description: "Identify firearms and sharp objects in frames.", EndpointKey: "video.weaponDetection"},
		{Slug: "crowd-analysis", Title: "Crowd Analysis", Description: "Density, flow, and congestion hotspots.", EndpointKey: "video.crowdAnalysis"},
		{Slug: "suspicious-activity", Title: "Suspicious Activity Detection", Description: "Loitering, tailgating, and unusual paths.", EndpointKey: "video.suspiciousActivity"},
		{Slug: "perimeter-breach", Title: "Perimeter Breach Alerts", Description: "Virtual tripwires and off-hours movement.", EndpointKey: "video.perimeterBreach"},
	},
	BorderSecurity: {
		{Slug: "drone-detection", Title: "Drone Detection", Description: "RF and visual detection for unauthorized drones.", EndpointKey: "border.droneDetection"},
		{Slug: "suspicious-activity", Title: "Suspicious Activity Detection", Description: "Pattern-of-life deviations near border.", EndpointKey: "border.suspiciousActivity"},
		{Slug: "vehicle-anpr", Title: "Vehicle Detection & ANPR", Description: "Detect vehicles and read number plates.", EndpointKey: "border.vehicleAnpr"},
		{Slug: "night-thermal-person", Title: "Night/Thermal Person Detection", Description: "Low-light and thermal detection of persons.", EndpointKey: "border.nightThermalPerson"},
		{Slug: "smuggling-route-patterns", Title: "Smuggling Route Patterns", Description: "Temporal and geospatial route anomalies.", EndpointKey: "border.smugglingRoutes"},
	},
}

// Domains lists the catalog in display order.
func Domains() []DomainInfo {
	out := make([]DomainInfo, len(domainCatalog))
	copy(out, domainCatalog)
	return out
}

// ValidDomain reports whether key names a known domain.
func ValidDomain(key string) bool {
	_, ok := catalog[Domain(key)]
	return ok
}

// ForDomain returns the module descriptors of one domain in display order.
func ForDomain(domain Domain) []Descriptor {
	items := catalog[domain]
	out := make([]Descriptor, len(items))
	copy(out, items)
	return out
}

// Get finds one module by domain and slug.
func Get(domain Domain, slug string) (Descriptor, bool) {
	for _, m := range catalog[domain] {
		if m.Slug == slug {
			return m, true
		}
	}
	return Descriptor{}, false
}
