package models

// Tag is one category tag of a tweet.
type Tag string

// Category tags. Referenced tweet types from the API map one to one.
const (
	TagTweeted   Tag = "tweeted"
	TagRetweeted Tag = "retweeted"
	TagQuoted    Tag = "quoted"
	TagRepliedTo Tag = "replied_to"
)

// Category is the ordered list of tags of a tweet.
type Category []Tag

// IsRetweet reports whether the category is exactly [retweeted]. Mixed
// categories that contain retweeted do not count.
func (c Category) IsRetweet() bool {
	return len(c) == 1 && c[0] == TagRetweeted
}

// Has reports whether tag appears in the category.
func (c Category) Has(tag Tag) bool {
	for _, t := range c {
		if t == tag {
			return true
		}
	}

	return false
}

// Sentiment is the coarse polarity label of a text.
type Sentiment string

// Sentiment labels.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Effective categories written when augmentation is enabled.
const (
	EffectiveRetweet = "retweet"
	EffectiveQuote   = "quote"
	EffectiveReply   = "reply"
	EffectiveTweet   = "tweet"
)

// NormalizedRecord is the flat record derived from one RawTweet. Nil slices and
// pointers serialize as null and mean "unknown", not "empty".
type NormalizedRecord struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     string    `json:"created_at"`
	Lang          string    `json:"lang"`
	Text          string    `json:"text"`
	Username      string    `json:"username"`
	FollowerCount int64     `json:"follower_count"`
	TweetCount    int64     `json:"tweet_count"`
	Country       *string   `json:"country"`
	CountryCode   *string   `json:"country_code"`
	Category      Category  `json:"category"`
	OriginalText  string    `json:"original_text"`
	Sentiment     Sentiment `json:"sentiment"`
	URLs          []string  `json:"urls"`
	Hashtags      []string  `json:"hashtags"`
	Domain        []string  `json:"domain"`
	DomainSuffix  []string  `json:"domain_suffix"`

	RetweetFrom       *string `json:"retweet_from,omitempty"`
	EffectiveCategory string  `json:"effective_category,omitempty"`
}

// Augmented attribute names, appended to reduced records whenever present.
const (
	AttrRetweetFrom       = "retweet_from"
	AttrEffectiveCategory = "effective_category"
)

// RecordAttributes lists the serialized attribute names of a NormalizedRecord
// in output order.
var RecordAttributes = []string{
	"id",
	"author_id",
	"created_at",
	"lang",
	"text",
	"username",
	"follower_count",
	"tweet_count",
	"country",
	"country_code",
	"category",
	"original_text",
	"sentiment",
	"urls",
	"hashtags",
	"domain",
	"domain_suffix",
	AttrRetweetFrom,
	AttrEffectiveCategory,
}
