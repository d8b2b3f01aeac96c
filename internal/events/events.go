// Package events serves the economic-calendar feed. The upstream data
// provider integration never shipped; the payload is frozen mock content
// the frontend renders as-is.
package events

// Event is a single calendar entry within a day.
type Event struct {
	Type    string `json:"type"`
	Time    string `json:"time"`
	Symbol  string `json:"symbol,omitempty"`
	Details string `json:"details"`
}

// DayEvents groups calendar entries under their date.
type DayEvents struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// Calendar returns the static date-keyed event groups.
func Calendar() []DayEvents {
	return []DayEvents{
		{
			Date: "2024-07-22",
			Events: []Event{
				{Type: "earnings", Time: "BMO", Symbol: "UEC", Details: "UEC Uranium Energy Corp Earnings"},
				{Type: "data", Time: "08:30", Details: "Chicago Fed National Activity Index"},
			},
		},
		{
			Date: "2024-07-23",
			Events: []Event{
				{Type: "earnings", Time: "BMO", Symbol: "GE", Details: "General Electric Co Earnings"},
				{Type: "data", Time: "09:00", Details: "S&P Case-Shiller Home Price Index"},
			},
		},
	}
}
