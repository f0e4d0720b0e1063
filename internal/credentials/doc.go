// Package credentials persists OAuth client credentials and tokens on
// disk, encrypted at rest, and exchanges the stored refresh token for
// fresh access tokens on demand.
package credentials
