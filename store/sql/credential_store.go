// Package sqlstore persists the bridge's credential record in a relational
// database. Each save inserts a new version inside a transaction and revokes
// the previously active row, so the record is replaced all-or-nothing and the
// rotation history stays queryable.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

type CredentialStore struct {
	db    *bun.DB
	repo  repository.Repository[*credentialRecord]
	codec core.CredentialCodec
}

func (s *CredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}

	payload, err := s.codec.Encode(credential)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		nextVersion, versionErr := s.nextVersion(ctx, tx)
		if versionErr != nil {
			return versionErr
		}

		if _, updateErr := tx.NewUpdate().
			Model((*credentialRecord)(nil)).
			Set("status = ?", credentialStatusRevoked).
			Set("revocation_reason = ?", "rotated").
			Set("updated_at = ?", now).
			Where("status = ?", credentialStatusActive).
			Exec(ctx); updateErr != nil {
			return updateErr
		}

		record := &credentialRecord{
			Version:        nextVersion,
			Payload:        payload,
			PayloadFormat:  s.codec.Format(),
			PayloadVersion: s.codec.Version(),
			TokenType:      credential.TokenType,
			Scope:          credential.Scope,
			Status:         credentialStatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if !credential.IssuedAt.IsZero() {
			issuedAt := credential.IssuedAt.UTC()
			record.IssuedAt = &issuedAt
		}
		if !credential.ExpiresAt.IsZero() {
			expiresAt := credential.ExpiresAt.UTC()
			record.ExpiresAt = &expiresAt
		}

		_, createErr := s.repo.CreateTx(ctx, tx, record)
		return createErr
	})
}

func (s *CredentialStore) Load(ctx context.Context) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", credentialStatusActive),
		repository.OrderBy("version DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Credential{}, err
	}
	if len(records) == 0 {
		return core.Credential{}, core.ErrCredentialNotFound
	}
	return s.codec.Decode(records[0].Payload)
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}

	_, err := s.db.NewUpdate().
		Model((*credentialRecord)(nil)).
		Set("status = ?", credentialStatusRevoked).
		Set("revocation_reason = ?", "cleared").
		Set("updated_at = ?", time.Now().UTC()).
		Where("status = ?", credentialStatusActive).
		Exec(ctx)
	return err
}

func (s *CredentialStore) nextVersion(ctx context.Context, tx bun.Tx) (int, error) {
	var maxVersion int
	if err := tx.NewSelect().
		Model((*credentialRecord)(nil)).
		ColumnExpr("COALESCE(MAX(version), 0)").
		Scan(ctx, &maxVersion); err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}
