package api_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"twix/internal/api"
)

func TestNormalizeUsersAcceptsEveryShape(t *testing.T) {
	entry := `{"user_id":"1","screen_name":"gopher","name":"Gopher","followers":1200,"following":"35","verified":true,"avatar":"https://img/1.png"}`
	shapes := map[string]string{
		"users key":  `{"users":[` + entry + `]}`,
		"bare array": `[` + entry + `]`,
		"data users": `{"data":{"users":[` + entry + `]}}`,
		"data array": `{"data":[` + entry + `]}`,
		"followers":  `{"followers":[` + entry + `]}`,
	}
	want := []api.User{{
		ID:              "1",
		Username:        "gopher",
		DisplayName:     "Gopher",
		FollowersCount:  1200,
		FollowingCount:  35,
		Verified:        true,
		ProfileImageURL: "https://img/1.png",
	}}
	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			got, err := api.NormalizeUsers(json.RawMessage(raw))
			if err != nil {
				t.Fatalf("NormalizeUsers: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("users mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeUserMapsAlternateKeys(t *testing.T) {
	raw := `{
		"id": 42,
		"username": "@rustacean",
		"display_name": "Ferris",
		"description": "crab",
		"followers_count": 10,
		"friends_count": 3,
		"blue_verified": true,
		"profile_image_url_https": "https://img/42.png",
		"created_at": "2020-01-01T00:00:00Z",
		"statuses_count": 77,
		"favourites_count": 5,
		"profile_banner_url": "https://banner",
		"protected": "true"
	}`
	got, ok := api.NormalizeUser(json.RawMessage(raw))
	if !ok {
		t.Fatal("expected object to normalize")
	}
	want := api.User{
		ID:              "42",
		Username:        "rustacean",
		DisplayName:     "Ferris",
		Bio:             "crab",
		FollowersCount:  10,
		FollowingCount:  3,
		Verified:        true,
		ProfileImageURL: "https://img/42.png",
		CreatedAt:       "2020-01-01T00:00:00Z",
		Tweets:          77,
		Favorites:       5,
		ProfileBanner:   "https://banner",
		Protected:       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeUsersToleratesDrift(t *testing.T) {
	got, err := api.NormalizeUsers(json.RawMessage(`{"users":[{"name":"no handle"}, 7, {"screen_name":"kept"}]}`))
	if err != nil {
		t.Fatalf("NormalizeUsers: %v", err)
	}
	if len(got) != 1 || got[0].Username != "kept" {
		t.Fatalf("expected only the identifiable user, got %+v", got)
	}

	empty, err := api.NormalizeUsers(json.RawMessage(`{"unexpected":true}`))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result for unknown shape, got %v %v", empty, err)
	}

	if _, err := api.NormalizeUsers(json.RawMessage(`{"users":`)); err == nil {
		t.Fatal("expected malformed JSON to error")
	}
}

func TestNormalizeTimelineAnalysisShape(t *testing.T) {
	raw := `{
		"timelines": [{
			"id": "t1", "user_id": "9", "date": "2024-05-01 10:00:00", "tweets": "hello #go",
			"screen_name": "gopher", "name": "Gopher", "retweet": 2, "replies": 1, "likes": 10,
			"link": "https://x.com/gopher/status/t1", "views": 300, "quote": 0,
			"hashtags": ["go"], "mentions": [], "link_media": "https://img/m.png"
		}],
		"hashtags": ["go"],
		"mentions": [{"user_mention": "@rob", "count": 3, "percentage": 12.5}],
		"metadata": {"username": "gopher", "total_tweets": 1, "analysis_period": "7d", "execution_time": 1.25, "cached": true}
	}`
	got, err := api.NormalizeTimeline(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("NormalizeTimeline: %v", err)
	}
	want := api.Timeline{
		Username: "gopher",
		Tweets: []api.Tweet{{
			ID:         "t1",
			Text:       "hello #go",
			Author:     "gopher",
			AuthorName: "Gopher",
			CreatedAt:  "2024-05-01 10:00:00",
			Likes:      10,
			Retweets:   2,
			Replies:    1,
			Views:      300,
			Link:       "https://x.com/gopher/status/t1",
			Media:      []string{"https://img/m.png"},
			Hashtags:   []string{"go"},
			Mentions:   []string{},
		}},
		Hashtags:       []string{"go"},
		Mentions:       []api.MentionStat{{User: "rob", Count: 3, Percentage: 12.5}},
		TotalCount:     1,
		AnalysisPeriod: "7d",
		ExecutionTime:  1.25,
		Cached:         true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTimelinePlainShape(t *testing.T) {
	raw := `{"data": {
		"user": {"id": "9", "username": "gopher", "display_name": "Gopher", "followers_count": 5},
		"tweets": [{"id": "t2", "text": "plain", "author": {"username": "gopher"}, "created_at": "2024-05-02T00:00:00Z",
			"retweet_count": 1, "like_count": 4, "reply_count": 0, "is_retweet": false, "media_urls": ["https://img/a.png"]}],
		"total_count": 12,
		"fetched_at": "2024-05-02T01:00:00Z"
	}}`
	got, err := api.NormalizeTimeline(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("NormalizeTimeline: %v", err)
	}
	if got.Username != "gopher" || got.User == nil || got.User.FollowersCount != 5 {
		t.Fatalf("unexpected user: %+v", got.User)
	}
	if got.TotalCount != 12 || got.FetchedAt != "2024-05-02T01:00:00Z" {
		t.Fatalf("unexpected totals: %d %q", got.TotalCount, got.FetchedAt)
	}
	if len(got.Tweets) != 1 || got.Tweets[0].Likes != 4 || got.Tweets[0].Author != "gopher" {
		t.Fatalf("unexpected tweets: %+v", got.Tweets)
	}
	if diff := cmp.Diff([]string{"https://img/a.png"}, got.Tweets[0].Media); diff != "" {
		t.Fatalf("media mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTimelineEmpty(t *testing.T) {
	got, err := api.NormalizeTimeline(nil)
	if err != nil {
		t.Fatalf("NormalizeTimeline: %v", err)
	}
	if got.Tweets == nil || len(got.Tweets) != 0 {
		t.Fatalf("expected empty non-nil tweets, got %#v", got.Tweets)
	}
}

func TestNormalizeLogin(t *testing.T) {
	got, err := api.NormalizeLogin(json.RawMessage(`{"data":{"credential_name":"main","screen_name":"gopher","message":"logged in"}}`))
	if err != nil {
		t.Fatalf("NormalizeLogin: %v", err)
	}
	want := api.LoginResult{CredentialName: "main", Username: "gopher", Message: "logged in"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("login mismatch (-want +got):\n%s", diff)
	}

	text, err := api.NormalizeLogin(json.RawMessage(`"ok"`))
	if err != nil || text.Message != "ok" {
		t.Fatalf("expected string result as message, got %+v %v", text, err)
	}
}
