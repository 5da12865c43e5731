// Package api is the typed client for the gym REST API.
//
// Every call validates its request before dispatch and maps failures onto a
// small taxonomy: *NetworkError when no response arrived, *HTTPError when
// the server answered with a failure status, *ValidationError when a
// request or response breaks its contract, and *AuthExpiredError for 401.
// A 401 also invokes the client's unauthorized handler so the session can
// be cleared in one place.
//
// Cache keys are request paths; the path helpers (UserPath, ExercisesPath,
// RoutinesPath, AdminUsersPath) are shared with the hooks package so a
// hook's key and its fetch URL can never drift apart.
package api
