package testhelpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shiftly/mono-repo/backend/shared/go-middleware"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// TestHelper bundles what handler and integration tests need: a signing
// key for bearer tokens and a works store.
type TestHelper struct {
	T          *testing.T
	Ctx        context.Context
	DB         *pgxpool.Pool // nil when WorkRepo is the in-memory store
	PrivateKey *rsa.PrivateKey
	Issuer     string

	WorkRepo repositories.WorkRepository
}

// NewTestHelper uses a fresh in-memory store and a throwaway RSA key.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	return &TestHelper{
		T:          t,
		Ctx:        context.Background(),
		PrivateKey: newKey(t),
		Issuer:     middleware.DefaultTokenIssuer,
		WorkRepo:   repositories.NewMemoryWorkRepository(),
	}
}

/*
NewDBTestHelper connects to DB_URL and skips the test when it is unset.
When uniqueRunID and uniqueRunNum are both given the connection logs in as
the per-run isolated role, the way CI runs the services.
*/
func NewDBTestHelper(t *testing.T, uniqueRunID, uniqueRunNum string) *TestHelper {
	t.Helper()
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		t.Skip("DB_URL not set; skipping database test")
	}
	if uniqueRunID != "" && uniqueRunNum != "" {
		var err error
		dbURL, err = utils.WithIsolatedRole(dbURL, uniqueRunID, uniqueRunNum)
		require.NoError(t, err)
	}

	ctx := context.Background()
	dbPool, err := pgxpool.Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbPool.Close() })

	require.NoError(t, repositories.EnsureSchema(ctx, dbPool))

	return &TestHelper{
		T:          t,
		Ctx:        ctx,
		DB:         dbPool,
		PrivateKey: newKey(t),
		Issuer:     middleware.DefaultTokenIssuer,
		WorkRepo:   repositories.NewWorkRepository(dbPool),
	}
}

func (h *TestHelper) PublicKey() *rsa.PublicKey {
	return &h.PrivateKey.PublicKey
}

func newKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate test RSA key")
	return key
}
