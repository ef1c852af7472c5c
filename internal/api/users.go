package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// User is the normalized profile model rendered by every panel.
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Bio             string `json:"bio,omitempty"`
	FollowersCount  int64  `json:"followers_count"`
	FollowingCount  int64  `json:"following_count"`
	Verified        bool   `json:"verified"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	Tweets          int64  `json:"tweets"`
	Favorites       int64  `json:"favorites"`
	ListedCount     int64  `json:"listed_count"`
	Location        string `json:"location,omitempty"`
	ProfileBanner   string `json:"profile_banner,omitempty"`
	URL             string `json:"url,omitempty"`
	Lang            string `json:"lang,omitempty"`
	Protected       bool   `json:"protected"`
}

// NormalizeUsers extracts user records from any of the result shapes the
// backend produces: {users:[...]}, a bare array, {data:{users:[...]}}, or
// {data:[...]}. Entries without an id or username are dropped.
func NormalizeUsers(raw json.RawMessage) ([]User, error) {
	if len(raw) == 0 {
		return []User{}, nil
	}
	decoded, err := decodeLoose(raw)
	if err != nil {
		return nil, fmt.Errorf("decode users result: %w", err)
	}
	items := locateUsers(decoded)
	users := make([]User, 0, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		user := normalizeUserObject(obj)
		if user.ID == "" && user.Username == "" {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// NormalizeUser maps a single user object. The boolean is false when raw is not
// a JSON object.
func NormalizeUser(raw json.RawMessage) (User, bool) {
	decoded, err := decodeLoose(raw)
	if err != nil {
		return User{}, false
	}
	obj, ok := asObject(decoded)
	if !ok {
		return User{}, false
	}
	return normalizeUserObject(obj), true
}

func locateUsers(v any) []any {
	if arr, ok := asArray(v); ok {
		return arr
	}
	obj, ok := asObject(v)
	if !ok {
		return nil
	}
	if arr, ok := asArray(obj["users"]); ok {
		return arr
	}
	if data, ok := obj["data"]; ok {
		if arr, ok := asArray(data); ok {
			return arr
		}
		if inner, ok := asObject(data); ok {
			if arr, ok := asArray(inner["users"]); ok {
				return arr
			}
		}
	}
	for _, key := range []string{"followers", "following", "results"} {
		if arr, ok := asArray(obj[key]); ok {
			return arr
		}
	}
	return nil
}

func normalizeUserObject(m map[string]any) User {
	return User{
		ID:              firstString(m, "user_id", "id", "id_str", "rest_id"),
		Username:        strings.TrimPrefix(firstString(m, "screen_name", "username", "handle"), "@"),
		DisplayName:     firstString(m, "name", "display_name"),
		Bio:             firstString(m, "bio", "description"),
		FollowersCount:  firstInt(m, "followers", "followers_count"),
		FollowingCount:  firstInt(m, "following", "following_count", "friends_count"),
		Verified:        firstBool(m, "verified", "blue_verified", "is_blue_verified"),
		ProfileImageURL: firstString(m, "avatar", "profile_image_url", "profile_image_url_https"),
		CreatedAt:       firstString(m, "created", "created_at"),
		Tweets:          firstInt(m, "tweets", "statuses_count"),
		Favorites:       firstInt(m, "favorites", "favourites_count"),
		ListedCount:     firstInt(m, "listed_count"),
		Location:        firstString(m, "location"),
		ProfileBanner:   firstString(m, "profile_banner", "profile_banner_url"),
		URL:             firstString(m, "url"),
		Lang:            firstString(m, "lang"),
		Protected:       firstBool(m, "protected"),
	}
}
