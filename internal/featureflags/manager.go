// Package featureflags evaluates rollout flags parsed from configuration.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	rulePercent
)

type rule struct {
	kind ruleKind
	pct  int
	raw  string
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "live_support=on,report_inspect=25%,legacy_dashboard=off"
// Rules are parsed once at construction; evaluation is allocation-free.
type Manager struct {
	rules map[string]rule
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Malformed pairs are skipped rather than failing the boot.
func NewManager(config string) *Manager {
	rules := make(map[string]rule)

	for _, pair := range strings.Split(config, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		name = normalize(name)
		value = normalize(value)
		if name == "" || value == "" {
			continue
		}
		rules[name] = parseRule(value)
	}

	return &Manager{rules: rules}
}

func parseRule(value string) rule {
	switch value {
	case "on", "true", "1":
		return rule{kind: ruleOn, raw: value}
	case "off", "false", "0":
		return rule{kind: ruleOff, raw: value}
	}
	if pctRaw, ok := strings.CutSuffix(value, "%"); ok {
		if pct, err := strconv.Atoi(pctRaw); err == nil {
			return rule{kind: rulePercent, pct: pct, raw: value}
		}
	}
	// Unknown syntax reads as off so a config typo never force-enables a flag.
	return rule{kind: ruleOff, raw: value}
}

// Enabled reports whether a flag is on for the given user. Percent rules
// bucket deterministically per user so a rollout never flaps between requests.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}

	switch r.kind {
	case ruleOn:
		return true
	case rulePercent:
		if r.pct <= 0 {
			return false
		}
		if r.pct >= 100 {
			return true
		}
		if userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < r.pct
	}
	return false
}

// Raw returns the configured flag values as written, for the admin dashboard.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot returns every flag evaluated for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
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
