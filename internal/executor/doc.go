/*
Package executor dispatches a request snapshot over HTTP.

# Request Building

  - Method maps straight onto the HTTP verb
  - Every header of the snapshot is attached
  - Params are merged into the URL query
  - A body is attached for every method except GET

# Responses

Response headers with several values are joined with ", ". The body is read
in full and returned as text. Elapsed time is wall clock around the call.

Network failures do not abort: Execute returns a Response whose Error field
is set, together with a network-coded error.

# TLS Configuration

  - Custom CA certificate (Options.CAFile)
  - InsecureSkipVerify for development
  - Optional redirect following

# Single Flight

Runner allows at most one execution at a time:

	job, err := runner.Start(req)
	if errors.Is(err, executor.ErrInFlight) {
		// tell the user to wait
	}
	resp, err := job(ctx)

Start clones the request, so edits made while the job runs never reach it.
*/
package executor
