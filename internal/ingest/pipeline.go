package ingest

import (
	"log/slog"
	"strings"

	"github.com/roach88/riskledger/internal/event"
	"github.com/roach88/riskledger/internal/match"
	"github.com/roach88/riskledger/internal/registry"
)

// Pipeline executes ingestion runs against a registry.
//
// All registry mutation happens on the caller's goroutine inside Ingest.
// The pipeline holds no per-run state, so one Pipeline serves any number of
// sequential runs; concurrent runs against the same registry are not
// supported, matching the single-writer ownership of the registry file.
type Pipeline struct {
	matcher *match.Matcher
	runIDs  RunIDGenerator
	logger  *slog.Logger
	decay   registry.DecayConfig
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMatcher overrides the default similarity matcher.
func WithMatcher(m *match.Matcher) Option {
	return func(p *Pipeline) { p.matcher = m }
}

// WithRunIDGenerator overrides the run ID source. Tests install a
// FixedGenerator for deterministic summaries.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Pipeline) { p.runIDs = g }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithDecayConfig overrides the decay curve.
func WithDecayConfig(cfg registry.DecayConfig) Option {
	return func(p *Pipeline) { p.decay = cfg }
}

// New creates a Pipeline with production defaults.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		matcher: match.New(match.DefaultConfig()),
		runIDs:  UUIDv7Generator{},
		logger:  slog.Default(),
		decay:   registry.DefaultDecayConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes one ingestion run.
type Result struct {
	RunID        string
	AsOf         string
	Created      int
	Merged       int
	FuzzyMatched int
	Decayed      int
	Deduped      int // events collapsed, at load time or by a fuzzy-merge fingerprint collision

	Leaderboard *registry.Leaderboard

	// ResolvedByUID and ResolvedBySlug map each update's correlation keys
	// to the event it landed on, for collaborators that render pages or
	// briefings from the batch.
	ResolvedByUID  map[string]*event.Event
	ResolvedBySlug map[string]*event.Event
}

// Ingest runs one parsed batch against the registry, in order: dedupe the
// loaded events, consume each update (exact match, then fuzzy match, then
// create), decay stale events, rebuild the leaderboard, and stamp
// last_rebuild. The registry is mutated in place.
//
// Update consumption never fails: identity fields any update carries are
// canonicalizable, and a score of any shape was already coerced at decode
// time. Batch-level problems are rejected earlier by ParsePacket.
func (p *Pipeline) Ingest(reg *event.Registry, packet *Packet) *Result {
	runID := p.runIDs.Generate()
	logger := p.logger.With("run_id", runID, "as_of", packet.AsOf)

	if reg.Version == 0 {
		reg.Version = event.RegistryVersion
	}

	loaded := len(reg.Events)
	deduped, index := registry.Dedupe(reg.Events)
	reg.Events = deduped

	res := &Result{
		RunID:          runID,
		AsOf:           packet.AsOf,
		Deduped:        loaded - len(deduped),
		ResolvedByUID:  make(map[string]*event.Event),
		ResolvedBySlug: make(map[string]*event.Event),
	}
	logger.Debug("registry ready", "events", len(reg.Events), "collapsed", res.Deduped)

	for _, u := range packet.EventsUpdate {
		if u == nil {
			continue
		}

		fields := event.CanonicalFields(u.Fields)
		fingerprint := event.Fingerprint(fields)

		target, exact := index.Lookup(fingerprint)
		if !exact {
			if candidate, score := p.matcher.BestMatch(reg.Events, fields, u.Title); candidate != nil {
				widened := registry.MergeFields(candidate.Fields, fields)
				widenedFingerprint := event.Fingerprint(widened)
				if displaced := index.Move(candidate.Fingerprint, widenedFingerprint, candidate); displaced != nil {
					// The widened identity collided with another tracked
					// event. Collapse the pair now; a registry holding two
					// events on one fingerprint cannot be persisted.
					registry.Absorb(candidate, displaced, widened, widenedFingerprint)
					reg.Events = dropEvent(reg.Events, displaced)
					res.Deduped++
					logger.Info("collapsed colliding event",
						"survivor", candidate.UID,
						"absorbed", displaced.UID)
				}
				fields = widened
				fingerprint = widenedFingerprint
				target = candidate
				res.FuzzyMatched++
				logger.Info("fuzzy-matched update",
					"title", titleOrUntitled(u.Title),
					"uid", candidate.UID,
					"score", score)
			}
		}

		payload := registry.PayloadFromUpdate(u)
		if target != nil {
			registry.Merge(target, payload, fields, fingerprint, packet.AsOf)
			res.Merged++
		} else {
			created := registry.Create(fields, fingerprint, payload, packet.AsOf)
			reg.Events = append(reg.Events, created)
			index.Insert(fingerprint, created)
			target = created
			res.Created++
			logger.Debug("created event", "uid", created.UID, "cluster", created.Cluster)
		}

		if uid := strings.TrimSpace(u.UID); uid != "" {
			res.ResolvedByUID[uid] = target
		}
		res.ResolvedBySlug[u.SlugHint()] = target
	}

	res.Decayed = registry.Decay(reg.Events, packet.AsOf, p.decay)
	res.Leaderboard = registry.BuildLeaderboard(reg.Events, packet.AsOf)
	reg.LastRebuild = packet.AsOf

	logger.Info("ingestion complete",
		"created", res.Created,
		"merged", res.Merged,
		"fuzzy_matched", res.FuzzyMatched,
		"decayed", res.Decayed,
		"events", len(reg.Events),
		"ranked", len(res.Leaderboard.Risks))

	return res
}

// dropEvent removes one event from the slice by identity, preserving the
// order of the rest.
func dropEvent(events []*event.Event, target *event.Event) []*event.Event {
	out := events[:0]
	for _, ev := range events {
		if ev != target {
			out = append(out, ev)
		}
	}
	return out
}

func titleOrUntitled(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "(untitled)"
}
