// Package cli provides the interactive crossposter command-line client.
//
// NewApp wires the local credential cache, the session, the proxy client,
// the encrypted remote config and the publishing coordinator. App.Run starts
// a REPL that supports register/login/logout, composing and publishing a
// post, importing and showing the publishing config, and refreshing the VK
// token.
package cli
