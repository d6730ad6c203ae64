package authclient

import "strconv"

// Backend revisions have returned the user record nested under "user", under
// "data.user", and at the top level of the payload. NormalizeUser is the one
// place that ordered fallback lives; callers must not re-implement it.
//
// A payload with no user-shaped value anywhere reports ok=false: absence is a
// failure signal, never an empty-but-valid session.
func NormalizeUser(payload map[string]any) (*User, bool) {
	if payload == nil {
		return nil, false
	}

	if m, ok := payload["user"].(map[string]any); ok {
		if user, ok := userFromMap(m); ok {
			return user, true
		}
	}

	if data, ok := payload["data"].(map[string]any); ok {
		if m, ok := data["user"].(map[string]any); ok {
			if user, ok := userFromMap(m); ok {
				return user, true
			}
		}
	}

	return userFromMap(payload)
}

// normalizeToken extracts an optional client-held credential, trying "token"
// then "data.token". Backends that rely purely on httpOnly cookies return
// neither.
func normalizeToken(payload map[string]any) (string, bool) {
	if payload == nil {
		return "", false
	}

	if token, ok := payload["token"].(string); ok && token != "" {
		return token, true
	}

	if data, ok := payload["data"].(map[string]any); ok {
		if token, ok := data["token"].(string); ok && token != "" {
			return token, true
		}
	}

	return "", false
}

// userIdentityKeys are the fields that make a map "user-shaped". At least one
// must be present before a top-level payload is adopted as a user record.
var userIdentityKeys = []string{"id", "_id", "email", "username", "name"}

func userFromMap(m map[string]any) (*User, bool) {
	if !looksLikeUser(m) {
		return nil, false
	}

	user := &User{}
	extra := map[string]any{}

	for key, val := range m {
		switch key {
		case "id", "_id":
			if user.ID == "" {
				user.ID = coerceString(val)
			}
		case "email":
			user.Email = coerceString(val)
		case "username":
			user.Username = coerceString(val)
		case "name":
			user.Name = coerceString(val)
		default:
			extra[key] = val
		}
	}

	if len(extra) > 0 {
		user.Extra = extra
	}

	return user, true
}

func looksLikeUser(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, key := range userIdentityKeys {
		if v, ok := m[key]; ok && coerceString(v) != "" {
			return true
		}
	}
	return false
}

// coerceString tolerates backends that serialize identifiers as numbers.
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return ""
	}
}
