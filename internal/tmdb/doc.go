// Package tmdb is a thin client for The Movie Database TV details endpoint,
// used to name show directories in the library.
package tmdb
