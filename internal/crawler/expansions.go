package crawler

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Tweet is one flattened tweet object.
type Tweet map[string]any

// Flatten merges the includes of a page into its tweets: the author of each
// tweet and of each referenced tweet, the replied-to user, the referenced
// tweets themselves and the geo place. Objects absent from the includes are
// left as the bare ids the API returned.
func Flatten(page *Page) ([]Tweet, error) {
	users, err := indexByID(page.Includes.Users, "id")
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}

	places, err := indexByID(page.Includes.Places, "id")
	if err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}

	included, err := indexByID(page.Includes.Tweets, "id")
	if err != nil {
		return nil, fmt.Errorf("tweets: %w", err)
	}

	// Referenced tweets get their own author and place before being embedded.
	for id, t := range included {
		included[id] = expandTweet(t, users, places, nil)
	}

	tweets := make([]Tweet, 0, len(page.Data))

	for i, raw := range page.Data {
		var t Tweet
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("tweet %d: %w", i, err)
		}

		tweets = append(tweets, expandTweet(t, users, places, included))
	}

	return tweets, nil
}

func expandTweet(t Tweet, users, places, tweets map[string]Tweet) Tweet {
	out := maps.Clone(t)

	if author, ok := users[stringField(t, "author_id")]; ok {
		out["author"] = author
	}

	if user, ok := users[stringField(t, "in_reply_to_user_id")]; ok {
		out["in_reply_to_user"] = user
	}

	if geo, ok := t["geo"].(map[string]any); ok {
		if place, ok := places[stringField(geo, "place_id")]; ok {
			merged := maps.Clone(geo)
			maps.Copy(merged, place)
			out["geo"] = merged
		}
	}

	if tweets == nil {
		return out
	}

	refs, ok := t["referenced_tweets"].([]any)
	if !ok {
		return out
	}

	expanded := make([]any, 0, len(refs))

	for _, r := range refs {
		ref, ok := r.(map[string]any)
		if !ok {
			expanded = append(expanded, r)

			continue
		}

		full, ok := tweets[stringField(ref, "id")]
		if !ok {
			expanded = append(expanded, ref)

			continue
		}

		merged := maps.Clone(map[string]any(full))
		merged["type"] = ref["type"]
		expanded = append(expanded, merged)
	}

	out["referenced_tweets"] = expanded

	return out
}

func indexByID(objects []json.RawMessage, key string) (map[string]Tweet, error) {
	index := make(map[string]Tweet, len(objects))

	for i, raw := range objects {
		var obj Tweet
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}

		if id := stringField(obj, key); id != "" {
			index[id] = obj
		}
	}

	return index, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)

	return s
}
