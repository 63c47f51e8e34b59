// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stub is a local stand-in for the report-assistant service.
package stub

import (
	"encoding/json"

	"github.com/benamram/tazak-tui/internal/model"
)

// demoOptions returns the built-in source channels.
func demoOptions() []model.Option {
	return []model.Option{
		{Value: "channel-north", Label: "Northern desk"},
		{Value: "channel-south", Label: "Southern desk"},
		{Value: "channel-liaison", Label: "Liaison traffic"},
	}
}

// demoReports returns the built-in report set.
func demoReports() map[string]model.Report {
	reports := []model.Report{
		{
			ID:          "rep-1001",
			Title:       "Weekly logistics summary",
			SpeakerA:    "Station 4",
			SpeakerB:    "Dispatch",
			Tazak:       "Routine supply movements discussed; schedule shifted to Thursday.",
			UpdatedDate: "2025-06-02T09:30:00Z",
			RawText:     "Full transcript of the logistics call, redacted for the demo.",
		},
		{
			ID:          "rep-1002",
			Title:       "Coordination call follow-up",
			SpeakerA:    "Desk officer",
			SpeakerB:    "Field unit",
			Tazak:       "Follow-up on the coordination call; two open action items remain.",
			UpdatedDate: "2025-06-03T14:10:00Z",
			RawText:     "Full transcript of the follow-up call, redacted for the demo.",
		},
		{
			ID:          "rep-1003",
			Title:       "Maintenance window notice",
			SpeakerA:    "Operations",
			SpeakerB:    "Support",
			Tazak:       "Planned maintenance window announced for the weekend.",
			UpdatedDate: "2025-06-04T08:00:00Z",
			RawText:     "Full transcript of the maintenance notice, redacted for the demo.",
		},
	}

	out := make(map[string]model.Report, len(reports))
	for _, r := range reports {
		out[r.ID] = r
	}
	return out
}

// demoScript builds the default NDJSON lines streamed for every query: a
// short answer with the first report linked inline, the rest left for the
// deferred trailer.
func demoScript(reportIDs []string) []string {
	lines := []string{
		textLine("Based on the selected channels, "),
		textLine("the most relevant recent activity is a routine "),
		textLine("logistics discussion. "),
	}
	if len(reportIDs) > 0 {
		lines = append(lines,
			linkLine(reportIDs[0]),
			textLine(" summarizes the call in question. "),
		)
	}
	lines = append(lines,
		textLine("No urgent items were flagged in the requested period."),
	)
	return lines
}

func textLine(text string) string {
	b, _ := json.Marshal(map[string]string{"generated_response": text})
	return string(b)
}

func linkLine(reportID string) string {
	b, _ := json.Marshal(map[string]string{"generated_link": reportID})
	return string(b)
}
