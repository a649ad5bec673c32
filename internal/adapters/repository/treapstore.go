package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/copa/internal/domain/knockout"
	"github.com/okian/copa/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: titles DESC, finals DESC, podiums DESC, then team ASC.
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Node priorities hash the team name, which keeps the
// tree balanced in expectation and the shape reproducible.

type tally struct {
	titles  int
	finals  int
	podiums int
}

// better reports whether a ranks strictly ahead of b, ignoring names.
func (a tally) better(b tally) bool {
	if a.titles != b.titles {
		return a.titles > b.titles
	}
	if a.finals != b.finals {
		return a.finals > b.finals
	}
	return a.podiums > b.podiums
}

// treap node
type node struct {
	team  string
	t     tally
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (a, aTeam) should appear before (b, bTeam).
func less(a tally, aTeam string, b tally, bTeam string) bool {
	if a != b {
		return a.better(b)
	}
	return aTeam < bTeam
}

func priority(team string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(team))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, team string, t tally) *node {
	if n == nil {
		return &node{team: team, t: t, prio: priority(team), size: 1}
	}
	if less(t, team, n.t, n.team) {
		n.left = insert(n.left, team, t)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, team, t)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, team string, t tally) *node {
	if n == nil {
		return nil
	}
	if t == n.t && team == n.team {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, team, t)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, team, t)
		}
	} else if less(t, team, n.t, n.team) {
		n.left = deleteNode(n.left, team, t)
	} else {
		n.right = deleteNode(n.right, team, t)
	}
	fix(n)
	return n
}

// countBetter returns how many nodes hold a tally strictly better than t.
func countBetter(n *node, t tally) int {
	count := 0
	for n != nil {
		if n.t.better(t) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is the in-memory leaderboard of title odds.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byTeam map[string]tally
	runs   atomic.Int64

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapStore constructs a treap store and starts its metrics updater,
// which runs until ctx is cancelled or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byTeam:                make(map[string]tally),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Record credits the champion with a title, both finalists with a final and
// every podium team with a podium.
func (s *TreapStore) Record(ctx context.Context, st knockout.Standings) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	s.bump(st.Champion, tally{titles: 1, finals: 1, podiums: 1})
	s.bump(st.RunnerUp, tally{finals: 1, podiums: 1})
	s.bump(st.Third, tally{podiums: 1})
	s.mu.Unlock()

	s.runs.Add(1)
	return nil
}

// bump adds delta to a team's tally. Caller holds s.mu.
func (s *TreapStore) bump(team string, delta tally) {
	if team == "" {
		return
	}
	old, ok := s.byTeam[team]
	if ok {
		s.root = deleteNode(s.root, team, old)
	}
	next := tally{
		titles:  old.titles + delta.titles,
		finals:  old.finals + delta.finals,
		podiums: old.podiums + delta.podiums,
	}
	s.byTeam[team] = next
	s.root = insert(s.root, team, next)
}

func (s *TreapStore) entry(team string, t tally, rank int, runs int64) Entry {
	e := Entry{Rank: rank, Team: team, Titles: t.titles, Finals: t.finals, Podiums: t.podiums}
	if runs > 0 {
		e.Odds = float64(t.titles) / float64(runs)
	}
	return e
}

// Rank returns the team's position in O(log n). Teams with equal tallies
// share a rank.
func (s *TreapStore) Rank(ctx context.Context, team string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byTeam[team]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return s.entry(team, t, countBetter(s.root, t)+1, s.runs.Load()), nil
}

// TopN returns the best n teams.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byTeam)))
	collectTopN(s.root, n, &nodes)

	runs := s.runs.Load()
	out := make([]Entry, len(nodes))
	rank := 1
	for i, nd := range nodes {
		if i > 0 && nd.t != nodes[i-1].t {
			rank = i + 1
		}
		out[i] = s.entry(nd.team, nd.t, rank, runs)
	}
	return out, nil
}

// Count returns the number of tallied teams.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTeam)
}

// Runs returns the number of recorded tournaments.
func (s *TreapStore) Runs(ctx context.Context) int64 {
	return s.runs.Load()
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLeaderboard(s.Count(ctx), int(s.Runs(ctx)))
			}
		}
	}()
}
