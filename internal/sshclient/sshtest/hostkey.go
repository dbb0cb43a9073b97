package sshtest

import "crypto/ed25519"

// ed25519KeyFromSeed derives an ed25519 private key from a 32-byte seed, used
// only to mint an ephemeral host key for the test server.
func ed25519KeyFromSeed(seed []byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(seed)
}
