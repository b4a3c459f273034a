package inheritree

import "iter"

// KeyBound is one endpoint of a key range.
type KeyBound[K any] struct {
	Key       K
	Inclusive bool
}

// RangeSpec bounds a range iteration. First and Last are the start and
// terminal endpoints in iteration order; either may be nil for an open
// end. Ascending selects the direction.
type RangeSpec[K any] struct {
	First     *KeyBound[K]
	Last      *KeyBound[K]
	Ascending bool
}

// Ascending returns a lazy sequence of cursors walking forward from path.
// A path in a crack starts on the upcoming entry. A mutation between
// yields surfaces ErrInvalidPath and ends the sequence.
func (t *Tree[E, K]) Ascending(path *Path[E, K]) iter.Seq2[*Path[E, K], error] {
	return t.sequence(path, t.moveNext)
}

// Descending returns a lazy sequence of cursors walking backward from
// path. A path in a crack starts on the nearest prior entry.
func (t *Tree[E, K]) Descending(path *Path[E, K]) iter.Seq2[*Path[E, K], error] {
	return t.sequence(path, t.movePrior)
}

func (t *Tree[E, K]) sequence(path *Path[E, K], step func(*Path[E, K])) iter.Seq2[*Path[E, K], error] {
	return func(yield func(*Path[E, K], error) bool) {
		if !t.IsValid(path) {
			yield(nil, ErrInvalidPath)
			return
		}
		cursor := path.Clone()
		if !cursor.on {
			step(cursor)
		}
		for cursor.on {
			if !yield(cursor, nil) {
				return
			}
			if cursor.version != t.version {
				yield(nil, ErrInvalidPath)
				return
			}
			step(cursor)
		}
	}
}

// Range returns a lazy sequence of cursors over the keys the spec admits,
// walking in the spec's direction and honoring inclusive/exclusive
// endpoints.
func (t *Tree[E, K]) Range(spec RangeSpec[K]) iter.Seq2[*Path[E, K], error] {
	return func(yield func(*Path[E, K], error) bool) {
		step := t.movePrior
		if spec.Ascending {
			step = t.moveNext
		}
		var cursor *Path[E, K]
		switch {
		case spec.First != nil:
			cursor = t.Find(spec.First.Key)
			if !(cursor.on && spec.First.Inclusive) {
				step(cursor)
			}
		case spec.Ascending:
			cursor = t.First()
		default:
			cursor = t.Last()
		}
		for cursor.on {
			if spec.Last != nil && t.crossedBound(cursor, spec) {
				return
			}
			if !yield(cursor, nil) {
				return
			}
			if cursor.version != t.version {
				yield(nil, ErrInvalidPath)
				return
			}
			step(cursor)
		}
	}
}

// crossedBound reports whether the cursor's key lies beyond the spec's
// terminal endpoint in the direction of travel.
func (t *Tree[E, K]) crossedBound(cursor *Path[E, K], spec RangeSpec[K]) bool {
	c := t.compare(t.keyAt(cursor), spec.Last.Key)
	if c == 0 {
		return !spec.Last.Inclusive
	}
	if spec.Ascending {
		return c > 0
	}
	return c < 0
}
