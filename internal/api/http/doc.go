/*
Package http provides the gin handlers of the service.

Routes:

	GET  /             landing page
	POST /find_source  {"url": "..."} -> {"source": "..."}
	GET  /health       {"status": "ok"}
	GET  /stats        lookup counters

POST /find_source answers 400 when url is absent, blank or not a string,
404 when the page has no matching frame and 500 for any other failure.
Failure details are logged, never returned.

Unknown routes, wrong methods and handler panics render the embedded error
page with the matching status.
*/
package http
