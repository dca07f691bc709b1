/*
Package browser provides headless Chromium sessions for source lookups.

# Launchers

PlaywrightLauncher starts a playwright driver and a Chromium instance per
session. Pages wait for the load event with a navigation timeout that
also respects the request deadline. Closing a session closes Chromium and
then stops the driver, reporting both failures.

RodLauncher does the same through go-rod and the DevTools protocol. Its
frames come from the page's frame tree, main frame first, then children
depth first.

Pool wraps any finder.Launcher and keeps up to N sessions alive between
requests. Launch checks a session out, waiting while all N are in use;
Close on the returned session checks it back in. Sessions whose browser
disconnected are discarded on check-in and checkout.

# Usage

	launcher := browser.NewPlaywrightLauncher(browser.DefaultPlaywrightOptions(), logger)

	// optional reuse
	pool := browser.NewPool(launcher, 4, metrics, logger)
	defer pool.Close()

	svc := finder.NewService(pool, finder.DefaultOptions(), logger)
*/
package browser
