// Package scraper invokes the external metadata scraper that renames and
// scrapes newly relocated episodes. The archive treats its failure as a
// warning; the files are already in the library by the time it runs.
package scraper
