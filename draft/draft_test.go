package draft

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type section struct {
	Max  int
	Days []int
}

func cloneSection(s section) section {
	s.Days = append([]int(nil), s.Days...)
	return s
}

func TestTrackerDirty(t *testing.T) {
	tr := NewTracker(section{Max: 1, Days: []int{1}}, WithClone(cloneSection))
	assert.False(t, tr.Dirty())

	tr.Edit(func(s *section) { s.Max = 2 })
	assert.True(t, tr.Dirty())

	tr.Edit(func(s *section) { s.Max = 1 })
	assert.False(t, tr.Dirty(), "returning to the snapshot value is clean")

	tr.Edit(func(s *section) { s.Days[0] = 5 })
	assert.True(t, tr.Dirty())
	assert.Equal(t, []int{1}, tr.Snapshot().Days, "draft must not alias the snapshot")

	tr.Discard()
	assert.False(t, tr.Dirty())
}

func TestTrackerResync(t *testing.T) {
	tr := NewTracker(section{Max: 1}, WithClone(cloneSection))

	assert.True(t, tr.Resync(section{Max: 2}))
	assert.Equal(t, 2, tr.Draft().Max)

	tr.Edit(func(s *section) { s.Max = 3 })
	assert.False(t, tr.Resync(section{Max: 1}), "dirty draft survives a refresh")
	assert.Equal(t, 3, tr.Draft().Max)
	assert.Equal(t, 1, tr.Snapshot().Max)

	tr.Commit(section{Max: 3})
	assert.False(t, tr.Dirty())
}

func TestTrackerCustomEqual(t *testing.T) {
	tr := NewTracker(section{Max: 1}, WithEqual(func(a, b section) bool { return a.Max == b.Max }))
	tr.Edit(func(s *section) { s.Days = []int{4} })
	assert.False(t, tr.Dirty())
}

func TestSessionGuard(t *testing.T) {
	var s Session
	ran := s.Guard(func() {})
	assert.True(t, ran, "no session open")

	s.Open()
	assert.True(t, s.Guard(func() {}), "open but clean")

	s.MarkDirty(true)
	assert.True(t, s.Protected())
	assert.False(t, s.Guard(func() { t.Fatal("must not run") }))

	s.Close()
	assert.False(t, s.Protected())
	s.MarkDirty(true)
	assert.False(t, s.Protected(), "closed sessions cannot be dirtied")
}

func TestSessionGuardConcurrent(t *testing.T) {
	var s Session
	s.Open()

	var wg sync.WaitGroup
	applied := 0
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Guard(func() { applied++ })
		}()
		go func(dirty bool) {
			defer wg.Done()
			s.MarkDirty(dirty)
		}(i%2 == 0)
	}
	wg.Wait()
	assert.LessOrEqual(t, applied, 50)
}
