// Package library lays out the media library: <root>/<show>/<season dir>, plus
// the show-level tvshow.nfo that lets a media server identify the show by
// TMDB id before any scraper has run.
package library
