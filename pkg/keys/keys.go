// Package keys defines the backend key naming convention and request
// fingerprinting for the cache.
//
// Keys follow the form <namespace>:<entity-id>[:<qualifier>], for example
// "trainset:TS-042" or "schedule:conflicts:2024-03-15". Each namespace
// prefix is owned by exactly one cache façade; façades must never derive
// keys outside their own namespace.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Namespace prefixes. One façade per prefix.
const (
	NamespaceTrainset     = "trainset"
	NamespaceSchedule     = "schedule"
	NamespaceOptimization = "optimization"
	NamespaceAnalytics    = "analytics"
)

// Separator joins key segments
const Separator = ":"

// Join builds a key from segments using the standard separator
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Trainset returns the key for a single trainset record
func Trainset(id string) string {
	return Join(NamespaceTrainset, id)
}

// TrainsetList returns the key for a filtered trainset list.
// The signature must come from FilterSignature so distinct filter
// combinations never collide.
func TrainsetList(signature string) string {
	return Join(NamespaceTrainset, "list", signature)
}

// Schedule returns the key for the optimized schedule of a calendar date
func Schedule(date string) string {
	return Join(NamespaceSchedule, date)
}

// ScheduleConflicts returns the key for the conflict report of a date
func ScheduleConflicts(date string) string {
	return Join(NamespaceSchedule, "conflicts", date)
}

// OptimizationResult returns the key for an optimization run, keyed by the
// deterministic fingerprint of its input
func OptimizationResult(fingerprint string) string {
	return Join(NamespaceOptimization, "result", fingerprint)
}

// AlgorithmPerformance returns the key for an algorithm's performance profile
func AlgorithmPerformance(algorithmID string) string {
	return Join(NamespaceOptimization, "algo", algorithmID)
}

// PerformanceMetrics returns the key for aggregated performance metrics
func PerformanceMetrics(scope string) string {
	return Join(NamespaceAnalytics, "metrics", scope)
}

// DashboardData returns the key for a dashboard snapshot
func DashboardData(scope string) string {
	return Join(NamespaceAnalytics, "dashboard", scope)
}

// Fingerprint derives a deterministic, collision-resistant signature from an
// arbitrary serializable value. Identical inputs always produce the same
// fingerprint, so repeated optimization requests resolve to the same key.
func Fingerprint(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fingerprint input: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// FilterSignature canonicalizes a filter set into a stable signature.
// Filters are sorted by name before hashing so that map iteration order
// cannot produce different keys for the same filter combination.
func FilterSignature(filters map[string]string) string {
	if len(filters) == 0 {
		return "all"
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(filters[name])
		b.WriteByte('&')
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])[:16]
}
