// Package providers groups the engines that implement finder.Launcher and
// the transport they share.
//
// Available Providers:
//   - browser: headless Chromium through playwright or rod, plus a session pool
//   - static: plain HTTP fetch and iframe extraction with goquery
//   - http/client: resty client with rate limiting and a circuit breaker
//
// Engine interface:
//   - Launch(ctx): returns a finder.Session
//   - Session.NewPage(ctx): returns a finder.Page
//   - Page.Goto / Frames / Close
//
// Example Usage:
//
//	launcher := browser.NewPlaywrightLauncher(browser.DefaultPlaywrightOptions(), logger)
//	svc := finder.NewService(launcher, finder.DefaultOptions(), logger)
//	source, err := svc.Find(ctx, "https://www.onlinegames.io/game-name/")
package providers
