// Package cli provides the interactive TravelEase command-line client.
//
// It wires configuration, the local session database, the identity
// provider, the backend client and the upload backend, then runs a REPL.
// Commands that need a signed-in user remember themselves and resume once
// the user has logged in or registered.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
