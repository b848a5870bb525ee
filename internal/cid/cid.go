// Package cid derives content identifiers for site assets and snapshots.
package cid

import (
	"crypto/sha256"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CIDv1 (raw codec, SHA-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	hash := sha256.Sum256(data)

	mh, err := multihash.Encode(hash[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// Generate returns the string form of Sum.
func Generate(data []byte) (string, error) {
	c, err := Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ETag returns a strong HTTP entity tag for data.
func ETag(data []byte) (string, error) {
	s, err := Generate(data)
	if err != nil {
		return "", err
	}
	return `"` + s + `"`, nil
}

// Validate checks if a string is a valid CID
func Validate(s string) bool {
	_, err := cid.Decode(s)
	return err == nil
}
