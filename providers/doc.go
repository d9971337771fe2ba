// Package providers implements the identity-provider side of the token
// lifecycle: the OAuth2 client that builds consent URLs and calls the token
// endpoint for authorization-code and refresh-token grants.
package providers
