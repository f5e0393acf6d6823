// Package common holds tiny helpers shared across the client packages.
package common

// WipeByteArray overwrites b with zeros. Used to drop passwords from memory
// once they have been sent to the identity provider. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
