package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlockFormed    BookmarkType = "flock_formed"
	BookmarkFlockDispersed BookmarkType = "flock_dispersed"
	BookmarkCrowding       BookmarkType = "crowding"
	BookmarkSteadyState    BookmarkType = "steady_state"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPolarizationPeak float64 // peak polarization since last dispersal
	steadyWindowsCount     int     // consecutive windows with steady polarization
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Flock formed: polarization > 2x rolling average
		if b := bd.checkFlockFormed(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Flock dispersed: polarization dropped >30% from recent peak
		if b := bd.checkFlockDispersed(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Crowding: largest bucket > 2x rolling average
		if b := bd.checkCrowding(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady state: low polarization variance over 5+ windows
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Polarization > bd.recentPolarizationPeak {
		bd.recentPolarizationPeak = stats.Polarization
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkFlockFormed(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Polarization
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.Polarization > avg*2.0 && stats.Polarization > 0.6 {
		return &Bookmark{
			Type:        BookmarkFlockFormed,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Polarization %.2f is %.1fx average (%.2f)", stats.Polarization, stats.Polarization/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFlockDispersed(stats WindowStats) *Bookmark {
	peak := bd.recentPolarizationPeak
	if peak < 0.5 {
		return nil
	}

	if stats.Polarization < peak*0.7 {
		// Reset the peak after triggering
		bd.recentPolarizationPeak = stats.Polarization

		return &Bookmark{
			Type:        BookmarkFlockDispersed,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Polarization dropped from %.2f to %.2f", peak, stats.Polarization),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCrowding(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.LargestBucket
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.LargestBucket) > avg*2.0 && stats.LargestBucket >= 10 {
		return &Bookmark{
			Type:        BookmarkCrowding,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Largest cell holds %d agents, %.1fx average (%.1f)", stats.LargestBucket, float64(stats.LargestBucket)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 5 {
		bd.steadyWindowsCount = 0
		return nil
	}

	// Coefficient of variation of polarization over the last 5 windows
	recent := make([]float64, 0, 5)
	for i := 0; i < 5; i++ {
		idx := (bd.historyIdx - 1 - i + bd.historySize) % bd.historySize
		recent = append(recent, history[idx].Polarization)
	}
	recent = append(recent, stats.Polarization)

	mean, std := stat.PopMeanStdDev(recent, nil)
	if mean < 0.1 {
		bd.steadyWindowsCount = 0
		return nil
	}

	if std/mean < 0.05 {
		bd.steadyWindowsCount++
		if bd.steadyWindowsCount == 5 {
			return &Bookmark{
				Type:        BookmarkSteadyState,
				Tick:        stats.WindowEndTick,
				Description: fmt.Sprintf("Polarization steady at %.2f (cv %.3f)", mean, std/mean),
			}
		}
	} else {
		bd.steadyWindowsCount = 0
	}

	return nil
}
