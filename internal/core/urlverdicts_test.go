package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLVerdictsFirstWriteWins(t *testing.T) {
	v := NewURLVerdicts()
	v.Record("http://example.com", "URL is safe")
	v.Record("http://example.com", "URL is malicious")

	verdict, ok := v.Get("http://example.com")
	require.True(t, ok)
	assert.Equal(t, "URL is safe", verdict)
	assert.Equal(t, 1, v.Len())
}

func TestURLVerdictsPreservesInsertionOrder(t *testing.T) {
	v := NewURLVerdicts()
	v.Record("http://c.example", "safe")
	v.Record("http://a.example", "malicious")
	v.Record("http://b.example", "suspicious")
	v.Record("http://a.example", "ignored")

	assert.Equal(t, []string{"http://c.example", "http://a.example", "http://b.example"}, v.URLs())
}

func TestURLVerdictsTreatsDistinctStringsAsDistinctURLs(t *testing.T) {
	v := NewURLVerdicts()
	v.Record("http://example.com", "safe")
	v.Record("http://example.com/", "malicious")

	assert.Equal(t, 2, v.Len())
}

func TestURLVerdictsMarshalKeepsOrder(t *testing.T) {
	v := NewURLVerdicts()
	v.Record("http://z.example", "first")
	v.Record("http://a.example", "second")

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"http://z.example":"first","http://a.example":"second"}`, string(data))
}

func TestURLVerdictsUnmarshalRestoresOrder(t *testing.T) {
	var v URLVerdicts
	err := json.Unmarshal([]byte(`{"http://z.example":"first","http://a.example":"second"}`), &v)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://z.example", "http://a.example"}, v.URLs())
	verdict, ok := v.Get("http://a.example")
	require.True(t, ok)
	assert.Equal(t, "second", verdict)
}

func TestURLVerdictsMarshalEmpty(t *testing.T) {
	data, err := json.Marshal(NewURLVerdicts())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
