// Package join threads partial results through a left-to-right walk over a
// fragment sequence.
//
// The parser and both compilers work the same way: match a bounded prefix, hand the
// remainder to a continuation, then combine what the two produced. join owns that
// plumbing and enforces its one rule: every fragment is consumed exactly once, in
// order. A step that does not advance, or that moves backwards, is reported as an
// *Error tagged with the offset where it happened.
package join

import "strconv"

// Error is a contract violation or a list that could not be continued.
type Error struct {
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "join: fragment " + strconv.Itoa(e.Offset) + ": " + e.Msg
}

// Cursor is an immutable read position over a fragment sequence. Advancing returns a
// new Cursor; the original stays valid, which is what makes lookahead cheap.
type Cursor[F any] struct {
	frags []F
	at    int
}

// Over starts a cursor at the first fragment.
func Over[F any](frags []F) Cursor[F] { return Cursor[F]{frags: frags} }

// Offset is the index of the next fragment.
func (c Cursor[F]) Offset() int { return c.at }

// Done reports whether every fragment was consumed.
func (c Cursor[F]) Done() bool { return c.at >= len(c.frags) }

// Len is the number of fragments left.
func (c Cursor[F]) Len() int { return len(c.frags) - c.at }

// Peek returns the next fragment without consuming it.
func (c Cursor[F]) Peek() (F, bool) { return c.PeekN(0) }

// PeekN returns the fragment n positions ahead of the cursor.
func (c Cursor[F]) PeekN(n int) (F, bool) {
	if c.at+n >= len(c.frags) || c.at+n < 0 {
		var zero F
		return zero, false
	}
	return c.frags[c.at+n], true
}

// Next consumes one fragment. At the end it returns the zero fragment and c unchanged.
func (c Cursor[F]) Next() (F, Cursor[F]) {
	f, ok := c.Peek()
	if !ok {
		return f, c
	}
	return f, Cursor[F]{frags: c.frags, at: c.at + 1}
}

// Step matches a bounded prefix at c and returns its value and the remainder.
type Step[F, T any] func(c Cursor[F]) (T, Cursor[F], error)

// Seq matches first, then the step produced by rest from first's value on the
// remainder, and merges both values.
func Seq[F, A, B, R any](first Step[F, A], rest func(A) Step[F, B], merge func(A, B) R) Step[F, R] {
	return func(c Cursor[F]) (R, Cursor[F], error) {
		var zero R
		a, mid, err := run(first, c)
		if err != nil {
			return zero, c, err
		}
		b, end, err := run(rest(a), mid)
		if err != nil {
			return zero, c, err
		}
		return merge(a, b), end, nil
	}
}

// List matches `item (sep item)* [sep]` up to, not including, the fragment that
// satisfies isClose. An empty list is allowed. When an item is followed by neither a
// separator nor the closer, missing builds the error for that position.
func List[F, T any](
	item Step[F, T],
	isSep, isClose func(F) bool,
	missing func(c Cursor[F]) error,
) Step[F, []T] {
	return func(c Cursor[F]) ([]T, Cursor[F], error) {
		var out []T
		cur := c
		for {
			f, ok := cur.Peek()
			if !ok {
				return nil, c, missing(cur)
			}
			if isClose(f) {
				return out, cur, nil
			}
			v, next, err := run(item, cur)
			if err != nil {
				return nil, c, err
			}
			if next.at == cur.at {
				return nil, c, &Error{Offset: cur.at, Msg: "list item consumed nothing"}
			}
			out = append(out, v)
			cur = next

			f, ok = cur.Peek()
			switch {
			case ok && isSep(f):
				_, cur = cur.Next()
			case ok && isClose(f):
				return out, cur, nil
			default:
				return nil, c, missing(cur)
			}
		}
	}
}

// Each folds frags left to right into acc. step sees every fragment exactly once, with
// its index; the first error stops the fold and is returned unchanged.
func Each[F, A any](frags []F, acc A, step func(acc A, f F, i int) (A, error)) (A, error) {
	for i, f := range frags {
		next, err := step(acc, f, i)
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}

// run applies s and rejects results that moved the cursor backwards or onto a
// different sequence.
func run[F, T any](s Step[F, T], c Cursor[F]) (T, Cursor[F], error) {
	v, next, err := s(c)
	if err != nil {
		return v, c, err
	}
	if next.at < c.at || len(next.frags) != len(c.frags) {
		var zero T
		return zero, c, &Error{Offset: c.at, Msg: "step moved backwards"}
	}
	return v, next, nil
}

// Run applies s to c with the same checks Seq and List use.
func Run[F, T any](s Step[F, T], c Cursor[F]) (T, Cursor[F], error) { return run(s, c) }
