package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// IDSRun summarizes one intrusion-detection analysis payload. Predictions
// are counted as attacks when they are the number 1 or the string "attack".
type IDSRun struct {
	TotalPredictions int    `json:"total_predictions"`
	AttackCount      int    `json:"attack_count"`
	CleanCount       int    `json:"clean_count"`
	Message          string `json:"message,omitempty"`
}

// SummarizeIDSRun tallies the predictions array of an IDS payload. A payload
// without one yields zero counts, not an error.
func SummarizeIDSRun(payload []byte) IDSRun {
	root := gjson.ParseBytes(payload)
	out := IDSRun{Message: stringField(root, "message")}

	preds := root.Get("predictions")
	if !preds.IsArray() {
		return out
	}
	preds.ForEach(func(_, p gjson.Result) bool {
		out.TotalPredictions++
		if (p.Type == gjson.Number && p.Num == 1) || (p.Type == gjson.String && p.Str == "attack") {
			out.AttackCount++
		}
		return true
	})
	out.CleanCount = out.TotalPredictions - out.AttackCount
	return out
}

// EmailRun summarizes one email-protection analysis payload. Total and
// Positives are nil when the payload carries no data array, so "no records"
// stays distinguishable from "zero records".
type EmailRun struct {
	Total     *int   `json:"total"`
	Positives *int   `json:"positives"`
	Message   string `json:"message,omitempty"`
}

// SummarizeEmailRun counts records of the data array whose classification,
// verdict or status text mentions phishing.
func SummarizeEmailRun(payload []byte) EmailRun {
	root := gjson.ParseBytes(payload)
	out := EmailRun{Message: stringField(root, "message")}

	records := root.Get("data")
	if !records.IsArray() {
		return out
	}

	total := 0
	positives := 0
	records.ForEach(func(_, rec gjson.Result) bool {
		total++
		verdict := rec.Get("classification")
		if verdict.Type != gjson.String {
			verdict = rec.Get("verdict")
		}
		if verdict.Type != gjson.String {
			verdict = rec.Get("status")
		}
		if verdict.Type == gjson.String && strings.Contains(strings.ToLower(verdict.String()), "phish") {
			positives++
		}
		return true
	})
	out.Total = &total
	out.Positives = &positives
	return out
}
