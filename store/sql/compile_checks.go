package sqlstore

import "github.com/AmmarHussainn/lawcusworkfinal/core"

var (
	_ core.CredentialStore = (*CredentialStore)(nil)
	_ core.CredentialStore = (*CachedCredentialStore)(nil)
)
