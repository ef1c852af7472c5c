package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tweet is the normalized timeline entry.
type Tweet struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Author     string   `json:"author"`
	AuthorName string   `json:"author_name,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	Likes      int64    `json:"likes"`
	Retweets   int64    `json:"retweets"`
	Replies    int64    `json:"replies"`
	Quotes     int64    `json:"quotes"`
	Views      int64    `json:"views"`
	IsRetweet  bool     `json:"is_retweet"`
	Link       string   `json:"link,omitempty"`
	Media      []string `json:"media,omitempty"`
	Hashtags   []string `json:"hashtags,omitempty"`
	Mentions   []string `json:"mentions,omitempty"`
}

// MentionStat counts how often an account is mentioned across a timeline.
type MentionStat struct {
	User       string  `json:"user"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Timeline is the normalized timeline result.
type Timeline struct {
	Username       string        `json:"username"`
	User           *User         `json:"user,omitempty"`
	Tweets         []Tweet       `json:"tweets"`
	Hashtags       []string      `json:"hashtags,omitempty"`
	Mentions       []MentionStat `json:"mentions,omitempty"`
	TotalCount     int64         `json:"total_count"`
	FetchedAt      string        `json:"fetched_at,omitempty"`
	AnalysisPeriod string        `json:"analysis_period,omitempty"`
	ExecutionTime  float64       `json:"execution_time,omitempty"`
	Cached         bool          `json:"cached"`
}

// NormalizeTimeline accepts both the analysis shape
// {timelines, hashtags, mentions, metadata} and the plain shape
// {user, tweets, total_count, fetched_at}, optionally wrapped in {data: ...}.
func NormalizeTimeline(raw json.RawMessage) (Timeline, error) {
	timeline := Timeline{Tweets: []Tweet{}}
	if len(raw) == 0 {
		return timeline, nil
	}
	decoded, err := decodeLoose(raw)
	if err != nil {
		return timeline, fmt.Errorf("decode timeline result: %w", err)
	}

	obj, ok := asObject(decoded)
	if !ok {
		if arr, isArr := asArray(decoded); isArr {
			timeline.Tweets = normalizeTweets(arr)
			timeline.TotalCount = int64(len(timeline.Tweets))
		}
		return timeline, nil
	}
	if inner, ok := asObject(obj["data"]); ok && obj["timelines"] == nil && obj["tweets"] == nil {
		obj = inner
	}

	if arr, ok := asArray(obj["timelines"]); ok {
		timeline.Tweets = normalizeTweets(arr)
	} else if arr, ok := asArray(obj["tweets"]); ok {
		timeline.Tweets = normalizeTweets(arr)
	}
	timeline.Hashtags = stringSlice(obj["hashtags"])
	timeline.Mentions = normalizeMentions(obj["mentions"])

	if userObj, ok := asObject(obj["user"]); ok {
		user := normalizeUserObject(userObj)
		timeline.User = &user
		timeline.Username = user.Username
	}
	if meta, ok := asObject(obj["metadata"]); ok {
		if timeline.Username == "" {
			timeline.Username = strings.TrimPrefix(firstString(meta, "username", "screen_name"), "@")
		}
		timeline.TotalCount = firstInt(meta, "total_tweets", "total_count")
		timeline.AnalysisPeriod = firstString(meta, "analysis_period")
		timeline.ExecutionTime = firstFloat(meta, "execution_time")
		timeline.Cached = firstBool(meta, "cached")
	}
	if timeline.TotalCount == 0 {
		timeline.TotalCount = firstInt(obj, "total_count", "total_tweets")
	}
	if timeline.TotalCount == 0 {
		timeline.TotalCount = int64(len(timeline.Tweets))
	}
	timeline.FetchedAt = firstString(obj, "fetched_at")
	if timeline.Username == "" && len(timeline.Tweets) > 0 {
		timeline.Username = timeline.Tweets[0].Author
	}
	return timeline, nil
}

func normalizeTweets(items []any) []Tweet {
	tweets := make([]Tweet, 0, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		tweet := Tweet{
			ID:        firstString(obj, "id", "tweet_id", "id_str"),
			Text:      firstString(obj, "text", "tweets", "full_text", "content"),
			CreatedAt: firstString(obj, "created_at", "date"),
			Likes:     firstInt(obj, "likes", "like_count", "favorite_count"),
			Retweets:  firstInt(obj, "retweet", "retweet_count", "retweets"),
			Replies:   firstInt(obj, "replies", "reply_count"),
			Quotes:    firstInt(obj, "quote", "quote_count"),
			Views:     firstInt(obj, "views", "view_count"),
			IsRetweet: firstBool(obj, "is_retweet"),
			Link:      firstString(obj, "link", "url"),
			Hashtags:  stringSlice(obj["hashtags"]),
			Mentions:  stringSlice(obj["mentions"]),
		}
		if author, ok := asObject(obj["author"]); ok {
			user := normalizeUserObject(author)
			tweet.Author = user.Username
			tweet.AuthorName = user.DisplayName
		} else {
			tweet.Author = strings.TrimPrefix(firstString(obj, "screen_name", "username", "author"), "@")
			tweet.AuthorName = firstString(obj, "name", "display_name")
		}
		if media := stringSlice(obj["media_urls"]); len(media) > 0 {
			tweet.Media = media
		} else if single := firstString(obj, "link_media"); single != "" {
			tweet.Media = []string{single}
		}
		if tweet.ID == "" && tweet.Text == "" {
			continue
		}
		tweets = append(tweets, tweet)
	}
	return tweets
}

func normalizeMentions(v any) []MentionStat {
	items, ok := asArray(v)
	if !ok {
		return nil
	}
	out := make([]MentionStat, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			out = append(out, MentionStat{User: strings.TrimPrefix(val, "@"), Count: 1})
		case map[string]any:
			user := strings.TrimPrefix(firstString(val, "user_mention", "user", "username", "screen_name"), "@")
			if user == "" {
				continue
			}
			out = append(out, MentionStat{
				User:       user,
				Count:      firstInt(val, "count"),
				Percentage: firstFloat(val, "percentage"),
			})
		}
	}
	return out
}
