/*
Package finder locates the game source frame of a web page.

A Finder owns one browser Session. FindSource opens a page, navigates to
the URL, then reads the page's frames immediately and every PollInterval
until a frame URL contains "cloud.onlinegames.io" together with one of
"index-og.html", "unity" or "games", or until WaitTimeout elapses. The
first match in frame order wins. The page is closed on every exit path.

Service wraps the per-request lifecycle: launch a session through a
circuit breaker, look up, close, and record metrics, stats and spans.

Outcomes:
  - a URL and nil error on match
  - ErrSourceNotFound when the page loaded but nothing matched
  - any other error for operational failures
*/
package finder
