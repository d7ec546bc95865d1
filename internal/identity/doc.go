// Package identity signs storefront users in.
//
// Client is a small JSON client for the Identity Toolkit REST API
// (accounts:signInWithPassword, accounts:signUp, accounts:update). Session
// wraps an Authenticator, keeps the signed-in user in memory and publishes
// every change on a channel that the live session loop consumes:
//
//	session := identity.NewSession(client, nil, log)
//	session.Start()                 // publishes "signed out"
//	go liveSession.Run(ctx, session.Changes())
//	session.SignIn(ctx, email, pw)  // publishes the user
//
// When a Firebase Admin app is configured, AdminVerifier checks each new ID
// token and supplies the sign-in provider for AuthUser.ProviderID.
package identity
