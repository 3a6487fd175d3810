// Package fingerprint derives the stable per-session device identifier used
// for server-side vote deduplication. The identifier is a SHA-256 digest of
// a canonically serialized set of passively observable environment signals.
// Every probe is best-effort: a blocked or unavailable signal degrades to
// its zero value rather than failing the whole derivation, so the
// fingerprint always resolves to some stable value for the session.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/store"
)

// CacheKey is the single session-scoped key the digest is cached under.
const CacheKey = "vote_fingerprint"

// maxFeatures bounds the environment feature list for privacy, mirroring
// the capped plugin list collected by browser clients.
const maxFeatures = 5

// Signals is the composite descriptor hashed into the fingerprint. Field
// order is fixed; json.Marshal of this struct is the canonical serialization.
type Signals struct {
	Platform   string   `json:"platform"`
	Arch       string   `json:"arch"`
	CPUs       int      `json:"cpus"`
	MemoryKB   int64    `json:"memory_kb"`
	TermWidth  int      `json:"term_width"`
	TermHeight int      `json:"term_height"`
	Timezone   string   `json:"timezone"`
	TZOffset   int      `json:"tz_offset"`
	Language   string   `json:"language"`
	Hostname   string   `json:"hostname"`
	Features   []string `json:"features"`
}

// Source collects device signals. Implementations must never fail; an
// unavailable signal is reported as its zero value.
type Source interface {
	Collect() Signals
}

// EnvSource collects signals from the local environment.
type EnvSource struct{}

// Collect gathers the environment signal set. Each probe degrades to a
// zero value when its source is unavailable.
func (EnvSource) Collect() Signals {
	sig := Signals{
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUs:     runtime.NumCPU(),
	}

	sig.MemoryKB = totalMemoryKB()

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		sig.TermWidth = w
		sig.TermHeight = h
	}

	name, offset := time.Now().Zone()
	sig.Timezone = name
	sig.TZOffset = offset

	sig.Language = firstEnv("LC_ALL", "LC_MESSAGES", "LANG")

	if host, err := os.Hostname(); err == nil {
		sig.Hostname = host
	}

	sig.Features = terminalFeatures()
	return sig
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// terminalFeatures reports which well-known terminal capability variables
// are set, as a bounded sorted name list. Values are deliberately not
// included; presence alone is enough signal.
func terminalFeatures() []string {
	known := []string{"TERM", "COLORTERM", "TERM_PROGRAM", "TMUX", "STY", "SSH_TTY", "WT_SESSION"}
	var features []string
	for _, name := range known {
		if os.Getenv(name) != "" {
			features = append(features, name)
		}
	}
	sort.Strings(features)
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	return features
}

// Cache is the session-scoped cache the provider reads and writes. It is
// satisfied by *store.Store.
type Cache interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// Provider derives the fingerprint once per session and caches it. It is a
// single-shot asynchronous operation: consumers observe Ready() false until
// the first Fingerprint call resolves, and every call returns the same value.
type Provider struct {
	log    logger.Logger
	cache  Cache
	source Source

	once  sync.Once
	value string
	err   error
	ready atomic.Bool
}

// NewProvider creates a fingerprint provider over the given session cache
func NewProvider(log logger.Logger, cache Cache, source Source) *Provider {
	if source == nil {
		source = EnvSource{}
	}
	return &Provider{log: log, cache: cache, source: source}
}

// Fingerprint returns the session fingerprint, deriving and caching it on
// first call. Repeated calls within a session return the identical value.
func (p *Provider) Fingerprint(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.value, p.err = p.derive(ctx)
		p.ready.Store(true)
	})
	return p.value, p.err
}

// Ready reports whether derivation has resolved
func (p *Provider) Ready() bool {
	return p.ready.Load()
}

// derive checks the session cache, then computes and stores the digest.
func (p *Provider) derive(ctx context.Context) (string, error) {
	if p.cache != nil {
		if cached, err := p.cache.GetValue(ctx, CacheKey); err == nil && Valid(cached) {
			p.log.Debug("Fingerprint loaded from session cache")
			return cached, nil
		}
	}

	signals := p.source.Collect()
	value, err := Digest(signals)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		if err := p.cache.SetValue(ctx, CacheKey, value); err != nil {
			p.log.Warn("Failed to cache fingerprint", "error", err)
		}
	}

	p.log.Debug("Fingerprint derived", "cpus", signals.CPUs, "timezone", signals.Timezone)
	return value, nil
}

// Digest canonically serializes the signals and hashes them to a
// 64-character lowercase hex string.
func Digest(signals Signals) (string, error) {
	canonical, err := json.Marshal(signals)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Valid reports whether value is a well-formed fingerprint: exactly 64
// lowercase hex characters.
func Valid(value string) bool {
	if len(value) != 64 {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// totalMemoryKB reads total system memory where cheaply available.
// Returns 0 on any platform or read failure.
func totalMemoryKB() int64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		var kb int64
		for _, c := range fields[1] {
			if c < '0' || c > '9' {
				return 0
			}
			kb = kb*10 + int64(c-'0')
		}
		return kb
	}
	return 0
}

// Ensure the session store satisfies the cache contract
var _ Cache = (*store.Store)(nil)
