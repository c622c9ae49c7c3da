// Package audioaddict is the client for the AudioAddict catalog API.
//
// A Session owns the HTTP client, the authenticated user, and one worker
// goroutine. Every operation is queued and run by that worker in submission
// order, so at most one request is in flight per session. The async forms
// return a Future; the blocking forms wait on it. Cancelling the caller's
// context abandons the wait but not the request.
//
// Authentication state moves Unauthenticated -> Authenticating ->
// Authenticated, and back to Unauthenticated on Logout. Changes are
// published to Subscribe channels.
//
// Endpoints, relative to the base URL (default DefaultBaseURL):
//
//	POST members/authenticate                   form username/password, always https
//	GET  mobile/batch_update?stream_set_key=Q   Authorization: Basic <api key>
//	GET  <resolved artwork template>            width/height query parameters
//
// Failures are *Error values carrying one of the Err* kinds.
package audioaddict
