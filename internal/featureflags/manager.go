// Package featureflags evaluates runtime switches configured through
// FEATURE_FLAGS, e.g. "rating_async=on,strict_rate_limit=off".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags read by the server.
const (
	// RatingAsync recomputes author ratings on a background queue instead of
	// inline after each committed write.
	RatingAsync = "rating_async"
	// StrictRateLimit rejects mutations with 503 while Redis is unreachable
	// instead of letting them through.
	StrictRateLimit = "strict_rate_limit"
)

var defaults = map[string]string{
	RatingAsync:     "on",
	StrictRateLimit: "off",
}

// Manager evaluates feature flags. Values are on/off style booleans or a
// percentage rollout ("25%") bucketed by user ID.
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated key=value list on top of the built-in
// defaults. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := maps.Clone(defaults)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether name is on for userID. Percentage rollouts are
// off for anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil, pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Global evaluates a process-wide switch, where a partial rollout counts as off.
func (m *Manager) Global(name string) bool {
	return m.Enabled(name, 0)
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns every flag evaluated for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.Raw()))
	for name := range m.Raw() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
