package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// credentialRecord is one version of the bridge's single credential record.
// Rotations insert a new row and revoke the previous active one; the active
// row with the highest version is the current credential.
type credentialRecord struct {
	bun.BaseModel `bun:"table:lawcus_credentials,alias:lc"`

	ID               string     `bun:"id,pk"`
	Version          int        `bun:"version,notnull"`
	Payload          []byte     `bun:"payload,notnull"`
	PayloadFormat    string     `bun:"payload_format,notnull"`
	PayloadVersion   int        `bun:"payload_version,notnull"`
	TokenType        string     `bun:"token_type,notnull"`
	Scope            string     `bun:"scope"`
	IssuedAt         *time.Time `bun:"issued_at,nullzero"`
	ExpiresAt        *time.Time `bun:"expires_at,nullzero"`
	Status           string     `bun:"status,notnull"`
	RevocationReason string     `bun:"revocation_reason"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

const (
	credentialStatusActive  = "active"
	credentialStatusRevoked = "revoked"
)
