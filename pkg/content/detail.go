package content

import "context"

// Fetcher performs a single request and decodes the response into T.
type Fetcher[T any] struct {
	engine *Engine
	params *RequestParameters
}

// NewFetcher returns a fetcher for p.
func NewFetcher[T any](e *Engine, p *RequestParameters) Fetcher[T] {
	return Fetcher[T]{engine: e, params: p}
}

// Parameters returns the underlying request parameters.
func (f *Fetcher[T]) Parameters() *RequestParameters { return f.params }

// Fetch executes the request. A 2xx body that does not decode fails with
// KindInvalidDataReturned.
func (f *Fetcher[T]) Fetch(ctx context.Context) (*T, error) {
	resp, err := f.engine.Send(ctx, f.params)
	if err != nil {
		return nil, err
	}

	return decodeJSON[T](resp.Body)
}

// FetchFunc runs Fetch on a worker goroutine and delivers the result through
// the engine's dispatcher.
func (f *Fetcher[T]) FetchFunc(ctx context.Context, cb func(*T, error)) *Operation {
	return Go(ctx, f.engine.dispatcher, f.Fetch, cb)
}

// FetchFuture returns a cold future for the result.
func (f *Fetcher[T]) FetchFuture(ctx context.Context) *Future[*T] {
	return NewFuture(ctx, f.engine.dispatcher, f.Fetch)
}
