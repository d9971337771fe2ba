package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
	"github.com/AmmarHussainn/lawcusworkfinal/migrations"
	sqlstore "github.com/AmmarHussainn/lawcusworkfinal/store/sql"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "lawcus-bridge-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"lawcus_credentials",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "lawcus_credentials" {
		t.Fatalf("expected lawcus_credentials table, got %q", tableName)
	}
}

func TestCredentialStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	credentialStore := factory.CredentialStore()
	if credentialStore == nil {
		t.Fatalf("expected credential store from factory")
	}

	if _, err := credentialStore.Load(ctx); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}

	first := core.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Scope:        "leads:read",
		IssuedAt:     time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
	if err := credentialStore.Save(ctx, first); err != nil {
		t.Fatalf("save first credential: %v", err)
	}

	second := first
	second.AccessToken = "access-2"
	second.RefreshToken = "refresh-2"
	if err := credentialStore.Save(ctx, second); err != nil {
		t.Fatalf("save second credential: %v", err)
	}

	loaded, err := credentialStore.Load(ctx)
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if loaded.AccessToken != "access-2" || loaded.RefreshToken != "refresh-2" {
		t.Fatalf("expected latest credential, got %+v", loaded)
	}

	var activeCount int
	if err := client.DB().NewRaw(
		"SELECT COUNT(*) FROM lawcus_credentials WHERE status = ?",
		"active",
	).Scan(ctx, &activeCount); err != nil {
		t.Fatalf("count active credentials: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly 1 active credential, got %d", activeCount)
	}

	var maxVersion int
	if err := client.DB().NewRaw(
		"SELECT COALESCE(MAX(version), 0) FROM lawcus_credentials",
	).Scan(ctx, &maxVersion); err != nil {
		t.Fatalf("max version: %v", err)
	}
	if maxVersion != 2 {
		t.Fatalf("expected version 2 after rotation, got %d", maxVersion)
	}

	if err := credentialStore.Clear(ctx); err != nil {
		t.Fatalf("clear credential: %v", err)
	}
	if _, err := credentialStore.Load(ctx); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}

	// Rotation history stays queryable after a clear.
	var revokedCount int
	if err := client.DB().NewRaw(
		"SELECT COUNT(*) FROM lawcus_credentials WHERE status = ?",
		"revoked",
	).Scan(ctx, &revokedCount); err != nil {
		t.Fatalf("count revoked credentials: %v", err)
	}
	if revokedCount != 2 {
		t.Fatalf("expected 2 revoked rows, got %d", revokedCount)
	}
}

func TestCredentialStore_CorruptPayloadSurfacesAsCorrupt(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}

	if _, err := client.DB().NewRaw(
		`INSERT INTO lawcus_credentials
			(id, version, payload, payload_format, payload_version, token_type, scope, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"11111111-1111-1111-1111-111111111111",
		1,
		[]byte("{not json"),
		core.CredentialPayloadFormatJSONV1,
		core.CredentialPayloadVersionV1,
		"Bearer",
		"",
		"active",
		time.Now().UTC(),
		time.Now().UTC(),
	).Exec(ctx); err != nil {
		t.Fatalf("seed corrupt payload: %v", err)
	}

	_, err = factory.CredentialStore().Load(ctx)
	if !errors.Is(err, core.ErrCredentialCorrupt) {
		t.Fatalf("expected corrupt payload error, got %v", err)
	}
	if errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("corrupt must not be reported as not found")
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:lawcus-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != migrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(migrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
