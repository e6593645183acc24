package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"2025-06-02",
		"2025-06-02T18:30:00.000Z",
		"2025-06-02T23:30:00+05:30",
		"2025-06-02 00:00:00",
		"2025-06-02 00:00:00+00",
		" 2025-06-02 ",
	} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2025-06-02", d.String())
	}

	for _, s := range []string{"", "02/06/2025", "2025-02-30", "2025-06-09 nonsense", "2025-06-09Tlater", "2025-06-09 25:00:00"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDateOf_UsesOwnLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2025, 6, 4, 23, 30, 0, 0, ist)

	assert.Equal(t, NewDate(2025, 6, 4), DateOf(late))
	assert.Equal(t, NewDate(2025, 6, 4), DateOf(late.UTC()))
	assert.Equal(t, NewDate(2025, 6, 5), DateOf(time.Date(2025, 6, 4, 20, 0, 0, 0, time.UTC).In(ist)))
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2025, 3, 28)
	assert.Equal(t, NewDate(2025, 4, 2), d.AddDays(5))
	assert.Equal(t, 5, DaysBetween(d, d.AddDays(5)))
	assert.Equal(t, 5, DaysBetween(d.AddDays(5), d))
	assert.Equal(t, 365, DaysBetween(NewDate(2025, 1, 1), NewDate(2026, 1, 1)))

	assert.True(t, NewDate(2025, 6, 7).IsWeekend())
	assert.True(t, NewDate(2025, 6, 8).IsWeekend())
	assert.False(t, NewDate(2025, 6, 9).IsWeekend())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.Equal(NewDate(2025, 3, 28)))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2025-06-02T00:00:00Z","b":null,"c":""}`), &payload))
	assert.Equal(t, NewDate(2025, 6, 2), payload.A)
	assert.True(t, payload.B.IsZero())
	assert.True(t, payload.C.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2025-06-02","b":null,"c":null}`, string(out))

	var bad Date
	assert.Error(t, bad.UnmarshalJSON([]byte(`20250602`)))
}
