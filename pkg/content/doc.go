// Package content provides the request engine, types and helpers for working
// with a headless content management API.
//
// # Overview
//
// The content package defines the building blocks every endpoint plugs into:
// RequestParameters and the capability traits that mutate them, the Lister,
// Fetcher and Downloader engines, the PollingJob helper, the Value type for
// dynamically typed fields and the error taxonomy. A catalog of concrete
// endpoints built on top of these lives in pkg/contentclient; most consumers
// should import that package to construct a client.
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/content-sdk/pkg/content"
//	  "github.com/fivetwenty-io/content-sdk/pkg/contentclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := contentclient.New(ctx, &content.Config{
//	    Credentials: &content.StaticCredentials{URL: "https://content.example.com", Channel: "abc"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  items, err := cli.ListItems().Query(`type eq "Article"`).Limit(20).FetchAll(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = items
//	}
//
// # Pagination
//
// A Lister keeps offset, limit and hasMore between calls. Each successful page
// advances the offset by the page's limit. After the server reports no more
// data, FetchNext fails with KindNoMoreData and performs no I/O. Failures leave
// the cursor untouched so the same page can be retried.
//
// # Invocation styles
//
// Every engine call has three forms with identical semantics: a blocking call
// taking a context, a callback form returning a cancellable Operation, and a
// cold Future. Callbacks and future listeners run on the configured
// Dispatcher.
//
// # Downloads and caching
//
// Downloader can consult a CacheProvider (file URLs) or ImageProvider
// (decoded images). With BypassNetworkOnHit a cached item is returned without
// network access; with AlwaysFetchWithConditionalHeader the provider's
// validators are sent and a 304 is answered from the provider. Store failures
// fail the download for both provider flavors. Implementations live in
// pkg/cache.
//
// # Errors
//
// All failures are *Error values with a Kind. Use errors.Is with the exported
// sentinels (ErrNotFound, ErrNoMoreData, ...) or helpers such as IsNotFound.
package content
