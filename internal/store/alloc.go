package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// articleState is the allocation state of one article. All fields are
// guarded by mu.
type articleState struct {
	mu sync.Mutex

	seeded     bool
	next       int
	generation uint64
	pending    map[int]struct{}
}

// allocator hands out sequence numbers per article. The map lock is only
// held to look up or create an article's state; all sequence bookkeeping
// happens under that article's own lock.
type allocator struct {
	mu       sync.Mutex
	articles map[int]*articleState

	// seed returns the first unused sequence number for an article, read
	// from persisted state.
	seed func(articleID int) (int, error)
}

func newAllocator(seed func(articleID int) (int, error)) *allocator {
	return &allocator{
		articles: make(map[int]*articleState),
		seed:     seed,
	}
}

func (a *allocator) state(articleID int) *articleState {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.articles[articleID]
	if !ok {
		st = &articleState{pending: make(map[int]struct{})}
		a.articles[articleID] = st
	}
	return st
}

// known returns the ids of all articles the allocator has seen, sorted.
func (a *allocator) known() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int, 0, len(a.articles))
	for id := range a.articles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// lock returns the article's state locked and seeded.
// The caller must unlock st.mu.
func (a *allocator) lock(articleID int) (*articleState, error) {
	st := a.state(articleID)
	st.mu.Lock()
	if !st.seeded {
		next, err := a.seed(articleID)
		if err != nil {
			st.mu.Unlock()
			return nil, err
		}
		st.next = next
		st.seeded = true
	}
	return st, nil
}

func (a *allocator) allocate(articleID int) (Reservation, error) {
	st, err := a.lock(articleID)
	if err != nil {
		return Reservation{}, err
	}
	defer st.mu.Unlock()

	seq := st.next
	if _, taken := st.pending[seq]; taken {
		return Reservation{}, &AllocationConflictError{
			Message: fmt.Sprintf("article %d: sequence %d already reserved", articleID, seq),
		}
	}
	st.next++
	st.pending[seq] = struct{}{}

	return Reservation{ArticleID: articleID, Seq: seq, generation: st.generation}, nil
}

// appendNext allocates the next sequence number and runs persist with it
// in one hold of the article lock, so no cleanup or other write for the
// article can interleave. The number stays consumed if persist fails.
func (a *allocator) appendNext(articleID int, persist func(seq int) error) (Reservation, error) {
	st, err := a.lock(articleID)
	if err != nil {
		return Reservation{}, err
	}
	defer st.mu.Unlock()

	if low, ok := lowestPending(st.pending); ok {
		return Reservation{}, &AllocationConflictError{
			Message: fmt.Sprintf("article %d: sequence %d reserved but not yet written", articleID, low),
		}
	}
	res := Reservation{ArticleID: articleID, Seq: st.next, generation: st.generation}
	st.next++

	if err := persist(res.Seq); err != nil {
		return Reservation{}, persistError(res, err)
	}
	return res, nil
}

// commit consumes a pending reservation and runs persist under the article
// lock. Reservations are written in allocation order: one whose
// predecessor is still pending is refused and stays pending. Once
// attempted, a reservation is consumed even if persist fails.
func (a *allocator) commit(res Reservation, persist func() error) error {
	st, err := a.lock(res.ArticleID)
	if err != nil {
		return err
	}
	defer st.mu.Unlock()

	if res.generation != st.generation {
		return &WriteFailedError{
			Message: fmt.Sprintf("article %d: writing comment %d", res.ArticleID, res.Seq),
			Err:     ErrStaleReservation,
		}
	}
	if _, ok := st.pending[res.Seq]; !ok {
		return &AllocationConflictError{
			Message: fmt.Sprintf("article %d: sequence %d is not reserved", res.ArticleID, res.Seq),
		}
	}
	if low, _ := lowestPending(st.pending); low < res.Seq {
		return &AllocationConflictError{
			Message: fmt.Sprintf("article %d: comment %d must be written before %d", res.ArticleID, low, res.Seq),
		}
	}
	delete(st.pending, res.Seq)

	if err := persist(); err != nil {
		return persistError(res, err)
	}
	return nil
}

func persistError(res Reservation, err error) error {
	var conflict *AllocationConflictError
	if errors.As(err, &conflict) {
		return err
	}
	return &WriteFailedError{
		Message: fmt.Sprintf("article %d: writing comment %d", res.ArticleID, res.Seq),
		Err:     err,
	}
}

func lowestPending(pending map[int]struct{}) (int, bool) {
	low, found := 0, false
	for seq := range pending {
		if !found || seq < low {
			low, found = seq, true
		}
	}
	return low, found
}

// reset runs clear under the article lock, then restarts allocation at 0
// and invalidates outstanding reservations. If clear fails the counter is
// re-seeded from persisted state on next use.
func (a *allocator) reset(articleID int, clear func() (int, error)) (int, error) {
	st := a.state(articleID)
	st.mu.Lock()
	defer st.mu.Unlock()

	n, err := clear()
	st.generation++
	st.pending = make(map[int]struct{})
	if err != nil {
		st.seeded = false
		return n, err
	}
	st.next = 0
	st.seeded = true
	return n, nil
}

// mergeIDs returns the sorted union of a and b without duplicates.
func mergeIDs(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, list := range [][]int{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
