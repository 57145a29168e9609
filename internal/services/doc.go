// Package services implements the HTTP client for the notebook platform API.
//
// # Transport
//
// [APIService] performs raw requests and returns an [APIResponse] carrying status, headers and body.
// Session cookies are kept in a cookie jar. When a static token is configured, requests go through an
// [oauth2.Transport] that attaches it as a bearer token. Requests are paced with a [rate.Limiter].
//
// # Platform
//
// [PlatformService] implements the [Platform] interface with typed endpoints:
//   - GET  /auth/me                   : identity check
//   - GET  /auth/status               : whether authentication is enforced
//   - POST /auth/login, /auth/logout  : interactive session management
//   - POST /notebooks/{id}/podcasts   : podcast generation trigger
//   - POST /notebooks/{id}/quizzes    : quiz generation trigger
//   - GET  /notebooks/{id}/artifacts  : artifact listing
//   - GET  /notebooks, /modules       : landing lists
//
// # Error Handling
//
// Failures are classified with sentinel errors from the shared package:
//   - [shared.ErrUnauthenticated] : 401/403, authoritative
//   - [shared.ErrTransport] : network failure, unexpected status, undecodable body
//   - [shared.ErrLoginFailed] : rejected credentials
//   - [shared.ErrGenerationFailed] : generation trigger not accepted
//
// The artifact id prefix [models.InProgressPrefix] is passed through untouched.
package services
