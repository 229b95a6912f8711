package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = (%v, %v), want (nil, nil)", om, err)
	}

	// nil manager is safe to use
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Errorf("WriteStats on nil manager: %v", err)
	}
	if err := om.WriteSummaryChart(); err != nil {
		t.Errorf("WriteSummaryChart on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		stats := WindowStats{
			WindowEndTick: int32(i * 600),
			SimTimeSec:    float64(i * 10),
			Agents:        100,
			SpeedMean:     float64(i),
			Polarization:  0.2 * float64(i),
		}
		if err := om.WriteStats(stats); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, stats.WindowEndTick); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkCrowding, Tick: 1200}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteSummaryChart(); err != nil {
		t.Fatalf("WriteSummaryChart: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatalf("reading stats.csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "window_end,sim_time,agents,") {
		t.Errorf("unexpected stats.csv header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	var rows []WindowStats
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatalf("parsing stats.csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("stats.csv has %d rows, want 3 (header written once)", len(rows))
	}
	if rows[2].WindowEndTick != 1800 || rows[2].SpeedMean != 3 {
		t.Errorf("last row = %+v", rows[2])
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	if got := strings.Count(string(perf), "window_end"); got != 1 {
		t.Errorf("perf.csv header written %d times", got)
	}

	if info, err := os.Stat(filepath.Join(dir, "summary.png")); err != nil || info.Size() == 0 {
		t.Errorf("summary.png missing or empty: %v", err)
	}
}

func TestSummaryChartNeedsTwoWindows(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if err := om.WriteStats(WindowStats{SimTimeSec: 1}); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := om.WriteSummaryChart(); err != nil {
		t.Fatalf("WriteSummaryChart: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.png")); !os.IsNotExist(err) {
		t.Errorf("summary.png written with a single window")
	}
}
