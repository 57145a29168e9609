// Package auth bootstraps the client session before anything else renders.
//
// # Components
//
//   - [IdentityStore] : in-memory view of the persisted identity, hydrated asynchronously from a
//     [models.IdentityRepository]. Reads before hydration return an empty snapshot.
//   - [SessionVerifier] : asks the platform who the current session belongs to and classifies
//     failures as [shared.ErrUnauthenticated] or [shared.ErrTransport].
//   - [Location] : the current route plus change subscribers. Navigation side effects land here.
//   - [Coordinator] : runs the initialization protocol and owns interactive login and logout.
//
// # Initialization
//
// [Coordinator.Initialize] waits for hydration, leaves public routes alone, trusts an identity that is
// already authenticated in memory, probes once whether the deployment enforces authentication, and
// only then verifies the session over the network. Every failure ends unauthenticated with a
// redirect to the login route; nothing is returned to the caller.
//
// Trusting the persisted identity only saves a round trip. The platform still authorizes every call.
package auth
