package courier

import (
	"sort"
	"strings"
)

// Fallback mapping for status strings outside a courier's known vocabulary.
const (
	TextUnknown     = "INDEFINIDO"
	CodeUnknown     = 98
	CodeUnprocessed = 99
)

// StatusMap normalizes a courier's raw status vocabulary into local status
// codes. Lookups are case-insensitive and total: any string outside the
// vocabulary maps to (TextUnknown, CodeUnknown), never an error.
type StatusMap struct {
	entries   map[string]int
	delivered int
	terminal  map[int]struct{}
	withdrawn string
}

// NewStatusMap builds a StatusMap from a courier's vocabulary table.
// delivered is the code that triggers secondary-table propagation; terminal
// lists the codes after which the shipment is no longer polled; withdrawn
// names the status text excluded from refresh scans (empty when the courier
// has none).
func NewStatusMap(entries map[string]int, delivered int, terminal []int, withdrawn string) *StatusMap {
	m := &StatusMap{
		entries:   make(map[string]int, len(entries)),
		delivered: delivered,
		terminal:  make(map[int]struct{}, len(terminal)),
		withdrawn: withdrawn,
	}
	for text, code := range entries {
		m.entries[strings.ToUpper(text)] = code
	}
	for _, code := range terminal {
		m.terminal[code] = struct{}{}
	}
	return m
}

// Map normalizes a raw remote status. Pure and total; never fails.
func (m *StatusMap) Map(raw string) (text string, code int) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if c, ok := m.entries[normalized]; ok {
		return normalized, c
	}
	return TextUnknown, CodeUnknown
}

// DeliveredCode returns the code that marks a shipment as delivered.
func (m *StatusMap) DeliveredCode() int {
	return m.delivered
}

// TerminalCodes returns the codes after which no further polling happens,
// in ascending order.
func (m *StatusMap) TerminalCodes() []int {
	codes := make([]int, 0, len(m.terminal))
	for code := range m.terminal {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// IsTerminal reports whether code belongs to the terminal set.
func (m *StatusMap) IsTerminal(code int) bool {
	_, ok := m.terminal[code]
	return ok
}

// WithdrawnState returns the status text excluded from refresh scans.
func (m *StatusMap) WithdrawnState() string {
	return m.withdrawn
}
