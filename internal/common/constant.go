// Package common contains shared constants and sentinel errors used across
// the auth and search components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// RevokedTokenKeyPrefix prefixes jti keys in the revocation cache.
const RevokedTokenKeyPrefix = "token:"
