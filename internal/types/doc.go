/*
Package types defines the request model shared by every other package.

# Entities

Group:
  - Named collection of requests
  - Persisted with an integer surrogate key (ID)

Request:
  - Name unique within its group
  - Method from the GET → POST → PUT → DELETE → PATCH cycle
  - RequestDetails with URL, body, headers, params and auth

Response:
  - Status, headers, body and elapsed time of the last execution
  - Never persisted

# Authorization

The Authorization header is derived, never edited:

	details.SetAuthType(types.AuthBasic)
	details.Basic.Username = "u"
	details.Basic.Password = "p"
	details.SyncAuthorization()
	// details.Headers["Authorization"] == "Basic dTpw"

Switching back to AuthNone removes the header and the payload.

# Snapshots

Request.Clone returns a deep copy. Execution always works on a clone so
edits made while a request is in flight cannot leak into it.
*/
package types
