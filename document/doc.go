// Package document defines the persisted form of an account and its versioned
// encodings.
//
// Two layouts exist. V1 is the legacy flat JSON record (username, clientToken,
// accessToken, profiles, activeProfile, user). V2 is the current layout with
// an explicit formatVersion, a token map, profile legacy flags and user
// properties. V2 may be stored as JSON or msgpack; Decode recognises both.
//
// Decoding is tolerant: unknown fields are ignored, unknown token names are
// dropped, duplicate profile ids keep the first occurrence and a current
// profile id that names no profile is cleared. Documents newer than
// CurrentVersion are rejected with ErrUnsupportedVersion.
//
// Encode always writes CurrentVersion, so reading an old document and writing
// it back migrates it.
package document
