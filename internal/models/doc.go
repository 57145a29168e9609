// Package models defines domain entities for the nbx notebook platform client.
//
// The package contains three groups of types:
//
// 1. Session state
//   - [Identity] : The authenticated user as reported by the platform
//   - [Role] : Admin or learner; drives the landing route
//   - [AuthRequirement] : Whether the deployment enforces authentication
//   - [PersistedIdentity] : The durable snapshot restored on start-up
//
// 2. Generation state
//   - [ActiveJob] : The single learner-initiated generation being tracked
//   - [Artifact] : A generated item (podcast, quiz, ...) listed per notebook
//
// 3. Navigation
//   - Route constants and [LandingPath] for role-based redirects
//
// [IdentityRepository] is the persistence port implemented by the repositories package.
package models
