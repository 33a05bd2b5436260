// Package models defines data structures for raw tweets and normalized records.
package models

import (
	"bytes"
	"encoding/json"
)

// Opt is a JSON field that remembers whether its key was present in the input
// and whether the value was an explicit null.
type Opt[T any] struct {
	Value   T
	Present bool
	Null    bool
}

// Some returns a present, non-null Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Present: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key exists.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true

		return nil
	}

	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON implements json.Marshaler.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Null {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

// Get returns the value and true when the key was present with a non-null value.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Present && !o.Null
}

// Valid reports whether the key was present with a non-null value.
func (o Opt[T]) Valid() bool {
	return o.Present && !o.Null
}

// RawTweet is a tweet object as written by the collector: the search API tweet
// with its author, referenced tweets and place already merged in.
type RawTweet struct {
	ID               Opt[string]            `json:"id"`
	AuthorID         Opt[string]            `json:"author_id"`
	CreatedAt        Opt[string]            `json:"created_at"`
	Lang             Opt[string]            `json:"lang"`
	Text             Opt[string]            `json:"text"`
	Author           Opt[Author]            `json:"author"`
	Geo              Opt[Geo]               `json:"geo"`
	Entities         Opt[Entities]          `json:"entities"`
	ReferencedTweets Opt[[]ReferencedTweet] `json:"referenced_tweets"`
}

// Author is the expanded user object attached to a tweet.
type Author struct {
	ID            Opt[string]        `json:"id"`
	Username      Opt[string]        `json:"username"`
	Name          Opt[string]        `json:"name"`
	PublicMetrics Opt[PublicMetrics] `json:"public_metrics"`
}

// PublicMetrics holds the author counters used by the normalizer.
type PublicMetrics struct {
	FollowersCount Opt[int64] `json:"followers_count"`
	FollowingCount Opt[int64] `json:"following_count"`
	TweetCount     Opt[int64] `json:"tweet_count"`
	ListedCount    Opt[int64] `json:"listed_count"`
}

// Geo is the tweet geo object with its place fields merged in.
type Geo struct {
	PlaceID     Opt[string] `json:"place_id"`
	FullName    Opt[string] `json:"full_name"`
	Country     Opt[string] `json:"country"`
	CountryCode Opt[string] `json:"country_code"`
}

// Entities lists structured entities found in a tweet text.
type Entities struct {
	Hashtags Opt[[]Hashtag]   `json:"hashtags"`
	URLs     Opt[[]URLEntity] `json:"urls"`
}

// Hashtag is a single hashtag entity.
type Hashtag struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

// URLEntity is a single URL entity. UnwoundURL is the fully resolved destination
// when the platform managed to compute it.
type URLEntity struct {
	URL         Opt[string] `json:"url"`
	ExpandedURL Opt[string] `json:"expanded_url"`
	UnwoundURL  Opt[string] `json:"unwound_url"`
	DisplayURL  Opt[string] `json:"display_url"`
}

// ReferencedTweet is an entry of referenced_tweets, flattened with the parent
// tweet content when the collector could resolve it.
type ReferencedTweet struct {
	Type     string        `json:"type"`
	ID       string        `json:"id"`
	Text     Opt[string]   `json:"text"`
	Entities Opt[Entities] `json:"entities"`
	Author   Opt[Author]   `json:"author"`
}
