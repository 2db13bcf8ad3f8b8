package logger

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type printerMock struct {
	lines  []string
	depths []int
}

func (p *printerMock) Output(calldepth int, s string) error {
	p.lines = append(p.lines, s)
	p.depths = append(p.depths, calldepth)
	return nil
}

func TestBWLogger(t *testing.T) {
	t.Run("it prints success messages and errors regardless of flags", func(t *testing.T) {
		p := &printerMock{}
		lg := NewBWLogger(p, false, false)

		lg.Successf("migrated %s", "stocks")
		lg.Error(errors.New("boom"))
		lg.Debugf("hidden")
		lg.SQL("DROP TABLE foo")

		require.Len(t, p.lines, 2)
		assert.Equal(t, "blueprint: migrated stocks", p.lines[0])
		assert.Equal(t, "blueprint error: boom", p.lines[1])
		assert.Equal(t, []int{3, 3}, p.depths)
	})

	t.Run("it prints sql with arguments when sql flag is set", func(t *testing.T) {
		p := &printerMock{}
		lg := NewBWLogger(p, true, true)

		lg.SQL("DELETE FROM migrations WHERE version = ?", 5, "x")
		lg.SQL("DROP TABLE IF EXISTS stocks")
		lg.Debugf("rolling back %d", 1)

		require.Len(t, p.lines, 3)
		assert.Equal(t, `blueprint sql: DELETE FROM migrations WHERE version = ? [args: 5, "x"]`, p.lines[0])
		assert.Equal(t, "blueprint sql: DROP TABLE IF EXISTS stocks", p.lines[1])
		assert.Equal(t, "blueprint debug: rolling back 1", p.lines[2])
	})
}

func TestColoredLogger(t *testing.T) {
	p := &printerMock{}
	lg := NewColorLogger(p, true, false)

	lg.SQL("CREATE TABLE foo (id INTEGER)")
	lg.Debugf("hidden")
	lg.Error(errors.New("boom"))

	require.Len(t, p.lines, 2)
	assert.True(t, strings.Contains(p.lines[0], "blueprint sql: CREATE TABLE foo (id INTEGER)"))
	assert.NotEqual(t, "blueprint sql: CREATE TABLE foo (id INTEGER)", p.lines[0])
	assert.True(t, strings.Contains(p.lines[1], "blueprint error: boom"))
	assert.NotEqual(t, "blueprint error: boom", p.lines[1])
}
