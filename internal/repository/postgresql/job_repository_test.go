package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downloader-api/internal/entity"
	"downloader-api/internal/repository/postgresql"
)

// setupArchive connects to TEST_POSTGRES_DSN or skips.
func setupArchive(t *testing.T) *postgresql.JobRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; postgres test instance unavailable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := postgresql.NewPool(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := postgresql.NewJobRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestJobRepository_SaveAndGet(t *testing.T) {
	repo := setupArchive(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := entity.NewJob(uuid.NewString(), entity.KindSingle, "https://example.com/v", entity.Options{MergeVideoAudio: true}, now)
	entity.CompletedPatch(entity.Result{Title: "Clip", Filename: "/data/Clip.mp4"}, entity.InitialProgress()).Apply(&job, now)

	require.NoError(t, repo.Save(ctx, job))
	require.NoError(t, repo.Save(ctx, job), "save is an upsert")

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.Equal(t, job.Options, got.Options)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Clip", got.Result.Title)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, now, *got.FinishedAt, time.Millisecond)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
}

func TestJobRepository_RejectsActiveAndMissing(t *testing.T) {
	repo := setupArchive(t)
	ctx := context.Background()

	active := entity.NewJob(uuid.NewString(), entity.KindSingle, "u", entity.Options{}, time.Now().UTC())
	assert.Error(t, repo.Save(ctx, active))

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
