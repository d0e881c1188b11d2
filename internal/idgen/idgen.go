// Package idgen mints the deterministic and random identifiers used to
// stamp FHIR resource ids and parser exception ids.
package idgen

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// NameUUID reproduces Java's UUID.nameUUIDFromBytes bit for bit: an MD5
// digest of the raw bytes, stamped as version 3 / RFC 4122 variant, with
// no namespace prefix. Existing downstream FHIR records were minted this
// way, so any change here breaks idempotent conditional-create matching
// against them.
func NameUUID(b []byte) uuid.UUID {
	sum := md5.Sum(b)
	var u uuid.UUID
	copy(u[:], sum[:])
	u[6] = (u[6] & 0x0f) | 0x30 // version 3
	u[8] = (u[8] & 0x3f) | 0x80 // RFC 4122 variant
	return u
}

// NameUUIDString is NameUUID formatted lower-case, the form every resource
// id and reference in this service uses.
func NameUUIDString(b []byte) string {
	return NameUUID(b).String()
}

// Random mints a fresh random (v4) UUID, used for InternalErrorData
// exception ids and as the last-resort fallback when no stable source
// identifier is available to hash.
func Random() string {
	return uuid.New().String()
}
