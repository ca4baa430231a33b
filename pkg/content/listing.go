package content

import (
	"context"
	"strconv"
)

// ListingState is the pagination cursor of a Lister.
type ListingState struct {
	HasMore bool
	// Offset is the offset the next fetch will request.
	Offset       uint
	Count        uint
	Limit        uint
	TotalResults uint
}

// Lister drives offset/limit pagination over one list endpoint.
//
// A Lister is not safe for concurrent use: callers must not overlap FetchNext
// calls on one instance. Independent instances may run in parallel.
type Lister[T any] struct {
	engine *Engine
	params *RequestParameters
	state  ListingState
	items  []T
	pages  int
}

// NewLister returns a lister for p, applying the engine's default page size.
func NewLister[T any](e *Engine, p *RequestParameters) Lister[T] {
	if _, ok := p.Query("limit"); !ok {
		p.SetQuery("limit", strconv.FormatUint(uint64(e.pageSize), 10))
	}

	return Lister[T]{
		engine: e,
		params: p,
		state:  ListingState{HasMore: true, Limit: e.pageSize},
	}
}

// Parameters returns the underlying request parameters.
func (l *Lister[T]) Parameters() *RequestParameters { return l.params }

// State returns the current cursor.
func (l *Lister[T]) State() ListingState {
	s := l.state
	s.Offset = l.params.uintQuery("offset", 0)

	if l.pages == 0 {
		s.Limit = l.params.uintQuery("limit", s.Limit)
	}

	return s
}

// Pages returns the number of pages fetched since creation or Reset.
func (l *Lister[T]) Pages() int { return l.pages }

// HasMore reports whether another page may be fetched.
func (l *Lister[T]) HasMore() bool { return l.state.HasMore }

// Items returns every item accumulated so far.
func (l *Lister[T]) Items() []T { return l.items }

// ForceComplete marks the listing terminal.
func (l *Lister[T]) ForceComplete() { l.state.HasMore = false }

// Reset rewinds the listing to the first page and drops accumulated items.
func (l *Lister[T]) Reset() {
	l.state = ListingState{HasMore: true, Limit: l.state.Limit}
	l.items = nil
	l.pages = 0
	l.params.DeleteQuery("offset")
}

// FetchNext fetches the next page. Once the listing is terminal it fails with
// KindNoMoreData without touching the network. On failure, including
// cancellation of ctx while the request was in flight, the cursor is left
// unchanged so the same page can be retried.
func (l *Lister[T]) FetchNext(ctx context.Context) (*Page[T], error) {
	if !l.state.HasMore {
		return nil, newError(KindNoMoreData, "listing is complete")
	}

	offset := l.params.uintQuery("offset", 0)
	limit := l.params.uintQuery("limit", l.engine.pageSize)

	resp, err := l.engine.Send(ctx, l.params)
	if err != nil {
		return nil, err
	}

	page, err := decodePage[T](resp.Body, offset, limit)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, AsError(err)
	}

	l.state = ListingState{
		HasMore:      page.HasMore,
		Offset:       offset + page.Limit,
		Count:        page.Count,
		Limit:        page.Limit,
		TotalResults: page.TotalResults,
	}
	l.params.SetQuery("offset", strconv.FormatUint(uint64(l.state.Offset), 10))
	l.items = append(l.items, page.Items...)
	l.pages++

	return page, nil
}

// FetchAll fetches pages until the listing is terminal and returns every item.
func (l *Lister[T]) FetchAll(ctx context.Context) ([]T, error) {
	for l.state.HasMore {
		if _, err := l.FetchNext(ctx); err != nil {
			return l.items, err
		}
	}

	return l.items, nil
}

// ForEach fetches pages lazily and calls fn for each item until fn returns an
// error or the listing is exhausted.
func (l *Lister[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for l.state.HasMore {
		page, err := l.FetchNext(ctx)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
	}

	return nil
}

// FetchNextFunc runs FetchNext on a worker goroutine and delivers the result
// through the engine's dispatcher.
func (l *Lister[T]) FetchNextFunc(ctx context.Context, cb func(*Page[T], error)) *Operation {
	return Go(ctx, l.engine.dispatcher, l.FetchNext, cb)
}

// FetchNextFuture returns a cold future for the next page.
func (l *Lister[T]) FetchNextFuture(ctx context.Context) *Future[*Page[T]] {
	return NewFuture(ctx, l.engine.dispatcher, l.FetchNext)
}
