// Package security holds the at-rest crypto for secdb data files: the
// password key derivation and the AES-256-CBC blob cipher.
package security
