// Package catalog turns uNoGS responses into titles: the paginated new and
// expiring collections, free-text search, and their table, json or yaml
// rendering.
package catalog
