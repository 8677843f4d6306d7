// Package crawler implements the listing crawl: the fetch pipeline (cache
// lookup, then a retrying, optionally paced fetch on miss) and the sequential
// page driver that turns listing pages into product records.
//
// A crawl walks page 1, 2, ... of a fixed URL template and stops at the first
// of: the configured page bound, a page with no valid products, a page the
// site reports as not found, or an unrecoverable fetch/parse error. Records
// gathered before the stop are always returned.
package crawler
