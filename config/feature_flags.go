package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Feature switches. Each can be turned off with FEATURE_<NAME>=false, e.g.
// FEATURE_ASSISTANT_CHAT=false.
const (
	FeatureLeaderboardProjection = "leaderboard.projection"  // Redis sorted-set ranking
	FeatureCampusTracker         = "presence.campus_tracker" // who is on campus now
	FeatureAssistantChat         = "assistant.chat"          // /api/chat
	FeatureFileArchive           = "files.archive"           // upload, list and download
	FeatureReadCache             = "cache.reads"             // tuition fee and class lists
)

var knownFeatures = []string{
	FeatureLeaderboardProjection,
	FeatureCampusTracker,
	FeatureAssistantChat,
	FeatureFileArchive,
	FeatureReadCache,
}

// FeatureFlags holds the on/off state of every known feature. Unknown names
// are always off. Safe for concurrent use.
type FeatureFlags struct {
	mu sync.RWMutex
	on map[string]bool
}

// LoadFeatureFlags starts with every feature on and applies FEATURE_* overrides.
// A value that does not parse as a bool is ignored.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{on: make(map[string]bool, len(knownFeatures))}
	for _, name := range knownFeatures {
		ff.on[name] = true
		if v, err := strconv.ParseBool(os.Getenv(envKey(name))); err == nil {
			ff.on[name] = v
		}
	}
	return ff
}

// envKey maps "presence.campus_tracker" to "FEATURE_PRESENCE_CAMPUS_TRACKER".
func envKey(name string) string {
	return "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}

func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	return ff.on[name]
}

func (ff *FeatureFlags) EnableFeature(name string) error  { return ff.set(name, true) }
func (ff *FeatureFlags) DisableFeature(name string) error { return ff.set(name, false) }

func (ff *FeatureFlags) set(name string, v bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if _, ok := ff.on[name]; !ok {
		return fmt.Errorf("unknown feature %q", name)
	}
	ff.on[name] = v
	return nil
}

// Disabled lists the features that are off, sorted, for the startup log.
func (ff *FeatureFlags) Disabled() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	var off []string
	for name, v := range ff.on {
		if !v {
			off = append(off, name)
		}
	}
	sort.Strings(off)
	return off
}
