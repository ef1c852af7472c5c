package api

import (
	"encoding/json"
	"fmt"
)

// LoginResult is the normalized outcome of a completed login job.
type LoginResult struct {
	CredentialName string `json:"credential_name,omitempty"`
	Username       string `json:"username,omitempty"`
	Message        string `json:"message,omitempty"`
}

// NormalizeLogin reads the loosely shaped login result. A non-object result
// yields an empty LoginResult.
func NormalizeLogin(raw json.RawMessage) (LoginResult, error) {
	if len(raw) == 0 {
		return LoginResult{}, nil
	}
	decoded, err := decodeLoose(raw)
	if err != nil {
		return LoginResult{}, fmt.Errorf("decode login result: %w", err)
	}
	obj, ok := asObject(decoded)
	if !ok {
		if s, isString := decoded.(string); isString {
			return LoginResult{Message: s}, nil
		}
		return LoginResult{}, nil
	}
	if inner, ok := asObject(obj["data"]); ok {
		obj = inner
	}
	return LoginResult{
		CredentialName: firstString(obj, "credential_name"),
		Username:       firstString(obj, "username", "screen_name", "user"),
		Message:        firstString(obj, "message", "detail", "status"),
	}, nil
}
