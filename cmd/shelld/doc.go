// Command shelld runs the window service with the headless runtime and
// the debug HTTP API. It exists for development and integration against
// shell frontends; in a packaged build the service is embedded next to
// the real renderer-backed runtime instead.
//
// Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger and metrics
//  3. Create the headless runtime and settings store
//  4. Construct the window service
//  5. Register hot categories from manifests
//  6. Apply the initial auth state and watch for changes
//  7. Serve the debug HTTP API
//  8. Tear down pools on signal
package main
