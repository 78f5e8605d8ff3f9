package attestazione

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/abruzzotech/attesta/internal/audit/domain"
	auditservice "github.com/abruzzotech/attesta/internal/audit/service"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	"github.com/abruzzotech/attesta/internal/storage"
)

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(_ context.Context, _ map[string]string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 attestazione"), nil
}

func setupGenerator(t *testing.T, r Renderer) (Generator, *gorm.DB, *storage.Memory) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AttestazioneLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()
	blobs := storage.NewMemory()

	gen := New(Params{
		Log:      logger,
		Config:   config.Config{AttestazioniBucket: "attestazioni", RetryAttempts: 1},
		Blobs:    blobs,
		Renderer: r,
		Audit:    auditservice.New(auditservice.Params{Log: logger, GenID: node}),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
	return gen, db, blobs
}

func testData() Data {
	return Data{
		Locatore: &catastodomain.Person{CF: "RSSMRA80A01G482X"},
		Immobile: &catastodomain.Immobile{
			ID: 42, OwnerCF: "RSSMRA80A01G482X",
			Foglio: "13", Numero: "100", Sub: "5",
		},
	}
}

func TestGenerateUploadsAndAudits(t *testing.T) {
	gen, db, blobs := setupGenerator(t, &stubRenderer{})
	ctx := context.Background()

	bucket, object, err := gen.Generate(ctx, db, testData())
	require.NoError(t, err)
	assert.Equal(t, "attestazioni", bucket)
	assert.Equal(t, "attestazione_RSSMRA80A01G482X_13_100_5.pdf", object)

	ok, err := blobs.Exists(ctx, bucket, object)
	require.NoError(t, err)
	assert.True(t, ok)

	var entry auditdomain.AttestazioneLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, auditdomain.StatusGenerated, entry.Status)
	assert.Equal(t, "RSSMRA80A01G482X", entry.OwnerCF)
	assert.Equal(t, object, entry.Object)
	assert.NotEmpty(t, entry.Params)
}

func TestGenerateRendererFailureAudited(t *testing.T) {
	gen, db, blobs := setupGenerator(t, &stubRenderer{err: errors.New("render boom")})
	ctx := context.Background()

	_, _, err := gen.Generate(ctx, db, testData())
	require.Error(t, err)

	var entry auditdomain.AttestazioneLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, auditdomain.StatusFailed, entry.Status)
	assert.Contains(t, entry.Error, "render boom")

	ok, err := blobs.Exists(ctx, "attestazioni", entry.Object)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateRequiresImmobile(t *testing.T) {
	gen, db, _ := setupGenerator(t, &stubRenderer{})
	_, _, err := gen.Generate(context.Background(), db, Data{})
	assert.Error(t, err)
}
