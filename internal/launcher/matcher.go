package launcher

import "strings"

// Matcher decides whether a stdout line indicates the server finished
// loading its world. Minecraft processes expose no structured readiness
// signal, so this is a log-scraping heuristic by necessity; keeping it
// behind an interface lets the orchestrator be tested without spawning
// real processes, and lets a modded server with different log output swap
// the markers.
type Matcher interface {
	Ready(line string) bool
}

// MarkerMatcher reports readiness when a single line contains every
// marker substring.
type MarkerMatcher struct {
	Markers []string
}

func (m MarkerMatcher) Ready(line string) bool {
	for _, marker := range m.Markers {
		if !strings.Contains(line, marker) {
			return false
		}
	}
	return len(m.Markers) > 0
}

// DefaultMatcher matches the vanilla "world load complete" line, e.g.
//
//	[Server thread/INFO]: Done (12.345s)! For help, type "help"
func DefaultMatcher() Matcher {
	return MarkerMatcher{Markers: []string{"Done", `For help, type "help"`}}
}
