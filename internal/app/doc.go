// Package app is the composition root for shopfront.
//
// # Overview
//
// This package wires configuration, logging, tracing, the document store
// backend and every domain component, then hands them to the UI. Services
// can be built without the UI, which is how the CLI's import and cart
// commands reuse the same wiring.
//
// # Components
//
//   - app.go: Run, the TUI entry point
//   - services.go: Services, OpenStore, Open, Start and Close
//   - logging.go: the logrus logger writing to the log file
//   - activity.go: background tail of the log file for the activity view
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml and env overrides
//	       ├─────> NewLogger()          JSON or text logs to the log file
//	       ├─────> telemetry.Setup()    Tracer provider, or noop
//	       ├─────> Open()               Store backend + components
//	       ├─────> Services.Start()     Dispatcher, auth session, catalog
//	       └─────> ui.Run()             Start TUI (blocks)
//
// Start runs the dispatcher loop, seeds the in-memory catalog when a source
// is configured, connects the auth session to the live subscriptions and
// loads the first catalog page (or subscribes to the whole catalog when
// live_catalog is set).
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid configuration
//   - Log file, trace file or backend initialization failure
//   - A firestore backend without an identity API key
//
// Recoverable errors (logged, the UI keeps running):
//   - Catalog seed or first page failures
//   - Subscription errors, which become slice failures
//   - Failed writes, which the UI reports as notices
//
// # Backends
//
//   - memory: process-local store, local accounts, catalog seeded at start
//   - redis: shared store in Redis, local accounts unless an API key is set
//   - firestore: Cloud Firestore with Identity Toolkit accounts
//
// Checkout is only available when a Stripe secret key is configured.
package app
