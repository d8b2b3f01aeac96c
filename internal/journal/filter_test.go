package journal

import (
	"errors"
	"testing"
	"time"
)

func TestListFilterWindowForDate(t *testing.T) {
	window, err := ListFilter{Date: "2024-07-22"}.window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC)
	if !window.start.Equal(wantStart) {
		t.Fatalf("unexpected window start: %v", window.start)
	}
	if !window.end.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected window end: %v", window.end)
	}
}

func TestListFilterWindowForMonth(t *testing.T) {
	window, err := ListFilter{Month: "2024-02"}.window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !window.start.Equal(wantStart) {
		t.Fatalf("unexpected window start: %v", window.start)
	}
	// February rolls over correctly on leap years.
	if !window.end.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window end: %v", window.end)
	}
}

func TestListFilterDateWinsOverMonth(t *testing.T) {
	window, err := ListFilter{Date: "2024-07-22", Month: "2023-01"}.window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.start.Equal(time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date filter to win, got start %v", window.start)
	}
}

func TestListFilterEmptyMeansNoWindow(t *testing.T) {
	window, err := ListFilter{}.window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window != nil {
		t.Fatalf("expected nil window, got %+v", window)
	}
}

func TestListFilterRejectsMalformedValues(t *testing.T) {
	testCases := []struct {
		name   string
		filter ListFilter
	}{
		{name: "bad-date", filter: ListFilter{Date: "22-07-2024"}},
		{name: "date-with-time", filter: ListFilter{Date: "2024-07-22T10:00:00Z"}},
		{name: "bad-month", filter: ListFilter{Month: "July 2024"}},
		{name: "month-with-day", filter: ListFilter{Month: "2024-07-01"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := testCase.filter.window()
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}
