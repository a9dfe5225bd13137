/*
encoder.go - Canonical feature encoding for the classifier

PURPOSE:
  Converts (user, workspace, request) into the ordered key/value
  representation handed to the suitability classifier. Determinism is a
  hard requirement: identical inputs must produce byte-identical output,
  both for reproducible tests and so encodings can be cached per
  candidate within one ranking call.

CANONICALIZATION:
  - Fields appear in a fixed order (see featureOrder below)
  - Facility lists are sorted before rendering
  - Times are bucketed (morning/afternoon/evening/night) and the
    duration rounded to whole minutes, so equivalent requests encode
    identically regardless of sub-minute jitter

SEE ALSO:
  - scorer.go: Consumes Features.Text()
*/
package allocation

import (
	"fmt"
	"sort"
	"strings"
)

// Feature is one key/value attribute of the encoded representation.
type Feature struct {
	Key   string
	Value string
}

// Features is the canonical ordered attribute set for one candidate.
type Features []Feature

// Text renders the classifier prompt: a single sentence-per-feature
// string, stable across calls.
func (f Features) Text() string {
	var b strings.Builder
	for _, ft := range f {
		b.WriteString(ft.Key)
		b.WriteString(": ")
		b.WriteString(ft.Value)
		b.WriteString(". ")
	}
	return strings.TrimSuffix(b.String(), " ")
}

// timeOfDayBucket maps the request start hour onto a coarse label.
// Buckets rather than raw clock times keep the encoding stable and
// give the classifier a feature it can actually generalize over.
func timeOfDayBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// EncodeFeatures produces the canonical feature set for one candidate.
// Deterministic: identical inputs yield byte-identical Text().
func EncodeFeatures(user User, ws Workspace, req AllocationRequest) Features {
	facilities := append([]string(nil), ws.Facilities...)
	sort.Strings(facilities)
	required := append([]string(nil), req.RequiredFacilities...)
	sort.Strings(required)

	dayType := "weekday"
	if wd := req.Window.Start.Weekday(); wd == 0 || wd == 6 {
		dayType = "weekend"
	}

	return Features{
		{"User level", emptyAs(user.Level, "unknown")},
		{"User department", emptyAs(user.Department, "unknown")},
		{"Workspace type", emptyAs(string(ws.Type), "unknown")},
		{"Capacity", fmt.Sprintf("%d", ws.Capacity)},
		{"Floor", fmt.Sprintf("%d", ws.Floor)},
		{"Available facilities", emptyAs(strings.Join(facilities, ", "), "none")},
		{"Team size needed", fmt.Sprintf("%d", req.TeamSize)},
		{"Privacy need", string(req.PrivacyNeed)},
		{"Collaboration need", string(req.CollaborationNeed)},
		{"Required facilities", emptyAs(strings.Join(required, ", "), "none")},
		{"Time of day", timeOfDayBucket(req.Window.Start.Hour())},
		{"Day type", dayType},
		{"Duration minutes", fmt.Sprintf("%d", int(req.Window.Duration().Minutes()))},
	}
}

func emptyAs(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
