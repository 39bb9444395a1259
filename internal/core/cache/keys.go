package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"
)

const (
	UserTTL      = 300 * time.Second
	UserListTTL  = 60 * time.Second
	UserListGlob = "users:*"
)

func UserKey(id string) string { return "user:" + id }

// UserListKey hashes the query parameters after normalising them to a JSON object
// with sorted keys, so field order in params never changes the key.
func UserListKey(params any) string {
	raw, _ := json.Marshal(params)
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		raw, _ = json.Marshal(m)
	}
	sum := md5.Sum(raw)
	return "users:" + hex.EncodeToString(sum[:])
}
