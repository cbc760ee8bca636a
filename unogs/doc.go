// Package unogs provides a caching client for the uNoGS Netflix catalog API.
//
// Every query goes through Client.Get, which decides between three outcomes:
//
//   - serve the response cached on disk, if it is less than a day old
//   - refuse, if a previous response showed the rate limit nearly exhausted
//   - download, cache the body and record the remaining rate limit
//
// # Cache
//
// Responses are stored raw as {cacheDir}/{kind}/{key}.json. Freshness is the
// file modification time; nothing in this package deletes entries except
// Cache.Purge, which callers run per query kind.
//
// # Rate limit lock
//
// One lock file per API host ({lockDir}/{apiName}) holds "{unix} {status}".
// The states and transitions are:
//
//	absent              IsLocked -> false
//	locked, < 24h old   IsLocked -> true
//	locked, >= 24h old  IsLocked -> rewritten as pending, false
//	pending             IsLocked -> deleted, false
//
// RecordSuccess writes a locked record when the remaining count is at or
// below the padding. Doing so while a pending record exists returns
// ErrInvariantViolation: the remote limit did not reset when it was assumed to.
//
// # Usage
//
//	cache := unogs.NewCache(cacheDir, logger)
//	transport, err := unogs.NewHTTPTransport(apiKey, logger)
//	if err != nil {
//		return err
//	}
//	client := unogs.NewClient(transport, cache, lockDir, logger)
//
//	page, _ := unogs.NewPage(unogs.KindNew, 1)
//	doc, err := client.Get(ctx, page)
package unogs
