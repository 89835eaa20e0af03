package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportsfeed/internal/record"
)

func TestParseLiveJSON_SingleObjects(t *testing.T) {
	t.Parallel()

	payload := `{"scores":{"sport":"soccer","category":{"@name":"Italy: Serie A","@id":1269,"matches":{"match":{
		"@status":"67","@id":"7001","@fix_id":"3301","@date":"Jul 05","@formatted_date":"05.07.2026","@time":"18:45","@venue":"San Siro",
		"localteam":{"@name":"AC Milan","@goals":"2","@id":"1"},
		"visitorteam":{"@name":"Inter","@goals":"2","@id":"2"},
		"events":{"event":{"@type":"goal","@minute":"55","@team":"visitorteam","@player":"L. Martinez","@playerId":"88","@result":"[2-2]"}},
		"ht":{"@score":"[1-1]"}
	}}}}}`

	got, err := ParseLiveJSON([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, record.KindJSONLive, m.Kind())
	assert.Equal(t, "7001", m.ID)
	assert.Equal(t, "3301", m.FixID)
	assert.Equal(t, "67", m.Status)
	assert.Equal(t, "San Siro", m.Venue)
	assert.Equal(t, "Italy: Serie A", m.CategoryName)
	assert.Equal(t, "1269", m.CategoryID)
	assert.Equal(t, "AC Milan", m.LocalTeam.Name)
	assert.Equal(t, "2", m.VisitorTeam.Goals)
	require.Len(t, m.Events, 1)
	assert.Equal(t, "88", m.Events[0].PlayerID)
	require.NotNil(t, m.HT)
	assert.Equal(t, "[1-1]", *m.HT)
	assert.Equal(t, map[string]string{"score": "[1-1]"}, m.Periods["ht"])
	assert.Nil(t, m.FT)
}

func TestParseLiveJSON_Arrays(t *testing.T) {
	t.Parallel()

	payload := `{"scores":{"category":[
		{"name":"England: Premier League","id":"1204","match":[
			{"id":"1","status":"FT","localteam":{"name":"Arsenal","goals":"3"},"visitorteam":{"name":"Chelsea","goals":"1"},"live_stats":{"shots":{"home":12}}},
			{"id":"2","status":"15:00","localteam":{"name":"Everton"},"visitorteam":{"name":"Fulham"}}
		]},
		{"name":"Spain: La Liga","id":"1399","match":{"id":"3","status":"HT","localteam":{"name":"Sevilla"},"visitorteam":{"name":"Getafe"}}}
	]}}`

	got, err := ParseLiveJSON([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1204", got[0].CategoryID)
	assert.Equal(t, "1204", got[1].CategoryID)
	assert.Equal(t, "Spain: La Liga", got[2].CategoryName)
	assert.Equal(t, "HT", got[2].Status)
	assert.JSONEq(t, `{"shots":{"home":12}}`, got[0].LiveStats)
	assert.Equal(t, "", got[1].LiveStats)
}

func TestParseLiveJSON_Invalid(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "{", `{"scores":{"category":"nope"}}`} {
		got, err := ParseLiveJSON([]byte(payload))
		assert.ErrorIs(t, err, ErrParse, "payload %q", payload)
		assert.Empty(t, got)
	}
}

func TestParseLiveJSON_EmptyScores(t *testing.T) {
	t.Parallel()

	got, err := ParseLiveJSON([]byte(`{"scores":{}}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}
