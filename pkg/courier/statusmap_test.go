package courier_test

import (
	"testing"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/stretchr/testify/assert"
)

func newTestMap() *courier.StatusMap {
	return courier.NewStatusMap(map[string]int{
		"PENDIENTE":  0,
		"EN CURSO":   2,
		"COMPLETADO": 3,
		"CANCELADO":  4,
	}, 3, []int{3, 4}, "RESCATADO")
}

func TestStatusMap_Map_Known(t *testing.T) {
	m := newTestMap()

	text, code := m.Map("COMPLETADO")
	assert.Equal(t, "COMPLETADO", text)
	assert.Equal(t, 3, code)
}

func TestStatusMap_Map_CaseInsensitive(t *testing.T) {
	m := newTestMap()

	text, code := m.Map("completado")
	assert.Equal(t, "COMPLETADO", text)
	assert.Equal(t, 3, code)

	text, code = m.Map("  En Curso ")
	assert.Equal(t, "EN CURSO", text)
	assert.Equal(t, 2, code)
}

func TestStatusMap_Map_Total(t *testing.T) {
	m := newTestMap()

	for _, raw := range []string{"", "   ", "NO EXISTE", "completado!", "çé"} {
		text, code := m.Map(raw)
		assert.Equal(t, courier.TextUnknown, text, "input %q", raw)
		assert.Equal(t, courier.CodeUnknown, code, "input %q", raw)
	}
}

func TestStatusMap_Terminal(t *testing.T) {
	m := newTestMap()

	assert.Equal(t, 3, m.DeliveredCode())
	assert.True(t, m.IsTerminal(3))
	assert.True(t, m.IsTerminal(4))
	assert.False(t, m.IsTerminal(0))
	assert.ElementsMatch(t, []int{3, 4}, m.TerminalCodes())
	assert.Equal(t, "RESCATADO", m.WithdrawnState())
}
