/*
Package static is a browser engine that does not run a browser.

Goto fetches the page with the shared resty client, decodes it to UTF-8
(declared charset first, chardet detection otherwise) and parses it with
goquery. The page's frames are the final document URL followed by the src
of every <iframe> and <frame>, resolved against <base href> or the
document URL, in document order.

No JavaScript runs, so frames injected by scripts are not seen. In
exchange a lookup costs one HTTP request and no Chromium.
*/
package static
