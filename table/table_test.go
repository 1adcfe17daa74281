package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendExtendsColumns(t *testing.T) {
	tab := New("a", "b")
	tab.Append(Row{"a": 1, "b": 2})
	tab.Append(Row{"a": 3, "z": 4, "c": 5})

	// declared columns first, then unseen ones sorted
	assert.Equal(t, []string{"a", "b", "c", "z"}, tab.Columns())
	assert.Equal(t, 2, tab.Len())
	assert.True(t, tab.HasColumn("z"))
	assert.False(t, tab.HasColumn("q"))
}

func TestRowFloat(t *testing.T) {
	r := Row{"f": 1.5, "i": int64(3), "s": "2.25", "t": "text", "n": nil}

	f, ok := r.Float("f")
	require.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	f, ok = r.Float("i")
	require.True(t, ok)
	assert.InDelta(t, 3.0, f, 1e-9)

	f, ok = r.Float("s")
	require.True(t, ok)
	assert.InDelta(t, 2.25, f, 1e-9)

	_, ok = r.Float("t")
	assert.False(t, ok)
	_, ok = r.Float("n")
	assert.False(t, ok)
	_, ok = r.Float("missing")
	assert.False(t, ok)
}

func TestSortByMissingLast(t *testing.T) {
	tab := New("delay_ms", "id")
	tab.Append(Row{"delay_ms": 50.0, "id": "c"})
	tab.Append(Row{"id": "b"})
	tab.Append(Row{"delay_ms": 0.0, "id": "a"})
	tab.Append(Row{"delay_ms": 50.0, "id": "a"})

	tab.SortBy("delay_ms", "id")

	assert.Equal(t, "a", tab.Row(0)["id"])
	assert.Equal(t, 0.0, tab.Row(0)["delay_ms"])
	assert.Equal(t, "a", tab.Row(1)["id"])
	assert.Equal(t, 50.0, tab.Row(1)["delay_ms"])
	assert.Equal(t, "c", tab.Row(2)["id"])
	// missing delay sorts last
	assert.Equal(t, "b", tab.Row(3)["id"])
	assert.Nil(t, tab.Row(3)["delay_ms"])
}

func TestWriteCSV(t *testing.T) {
	tab := New("id", "delay_ms", "note")
	tab.Append(Row{"id": "r1", "delay_ms": 20.5})
	tab.Append(Row{"id": "r2", "delay_ms": int64(7), "note": "x"})

	var buf bytes.Buffer
	require.NoError(t, tab.WriteCSV(&buf))
	assert.Equal(t, "id,delay_ms,note\nr1,20.5,\nr2,7,x\n", buf.String())
}

func TestWriteCSVEmptyTableStillHasHeader(t *testing.T) {
	tab := New("a", "b")
	var buf bytes.Buffer
	require.NoError(t, tab.WriteCSV(&buf))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "1.547", FormatValue(1.547))
	assert.Equal(t, "230", FormatValue(int64(230)))
	assert.Equal(t, "x", FormatValue("x"))
}
