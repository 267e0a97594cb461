// Package services implements the HTTP client for the channel directory backend.
//
// # Directory Interface
//
// The [Directory] interface is the backend contract the rest of the client
// consumes; [DirectoryService] is the HTTP implementation. Tests substitute
// mocks so the session and catalog layers never touch the network.
//
// # Credential Handling
//
// [DirectoryService] holds the bearer credential as an [oauth2.Token]. The
// session manager is the only writer (SetToken/ClearToken); doRequest attaches
// the Authorization header from the held token on every call. At most one
// (token, header) pair is active process-wide at any time.
//
// # Error Handling
//
// Non-2xx backend responses decode the FastAPI-style {"detail": ...} payload
// into [*APIError], which preserves the status code and server message.
// Transport failures wrap the underlying error. Callers map 401 on /auth/me
// to the silent forced-logout path in the session layer.
package services
