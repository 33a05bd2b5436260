package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpt_AbsentNullAndValue(t *testing.T) {
	var tweet RawTweet

	input := `{"id":"1","geo":null,"text":"hello"}`
	require.NoError(t, json.Unmarshal([]byte(input), &tweet))

	id, ok := tweet.ID.Get()
	assert.True(t, ok)
	assert.Equal(t, "1", id)

	assert.True(t, tweet.Geo.Present, "geo key is present")
	assert.True(t, tweet.Geo.Null, "geo key is null")
	assert.False(t, tweet.Geo.Valid())

	assert.False(t, tweet.Entities.Present, "entities key is absent")
	assert.False(t, tweet.Entities.Null)
}

func TestOpt_NestedEntities(t *testing.T) {
	var tweet RawTweet

	input := `{
		"entities": {
			"urls": [
				{"url": "https://t.co/a", "expanded_url": "https://bit.ly/x", "unwound_url": "https://example.com/x"},
				{"url": "https://t.co/b", "expanded_url": "https://example.org/y"}
			]
		}
	}`
	require.NoError(t, json.Unmarshal([]byte(input), &tweet))

	entities, ok := tweet.Entities.Get()
	require.True(t, ok)
	assert.False(t, entities.Hashtags.Present)

	urls, ok := entities.URLs.Get()
	require.True(t, ok)
	require.Len(t, urls, 2)
	assert.True(t, urls[0].UnwoundURL.Valid())
	assert.False(t, urls[1].UnwoundURL.Present)
}

func TestOpt_MarshalRoundTripsNull(t *testing.T) {
	data, err := json.Marshal(struct {
		A Opt[string] `json:"a"`
		B Opt[string] `json:"b"`
	}{A: Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(data))
}

func TestCategory_IsRetweet(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     bool
	}{
		{"bare retweet", Category{TagRetweeted}, true},
		{"tweet", Category{TagTweeted}, false},
		{"quote and reply", Category{TagQuoted, TagRepliedTo}, false},
		{"retweet mixed with quote", Category{TagRetweeted, TagQuoted}, false},
		{"empty", Category{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.IsRetweet())
		})
	}
}
