/*
main.go - Application entry point

PURPOSE:
  Runs the tracker command tree. All wiring lives in package cli.

EXAMPLES:
  # Run the API against a file database
  TRACKER_AUTH_JWT_SECRET=change-me-please-now ./tracker serve --db ./data/tracker.db

  # Run against an in-memory database
  ./tracker serve --db ":memory:"

ENVIRONMENT:
  Every config key can be set as TRACKER_<SECTION>_<KEY>, e.g.
  TRACKER_SERVER_PORT or TRACKER_LOG_FORMAT. A .env file in the working
  directory is loaded first.

SEE ALSO:
  - cli/root.go: Command tree
  - cli/serve.go: Server startup and graceful shutdown
*/
package main

import "github.com/warp/job-tracker/cli"

func main() {
	cli.Execute()
}
