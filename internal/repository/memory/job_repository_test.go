package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downloader-api/internal/entity"
)

func newJob(id string) entity.Job {
	return entity.NewJob(id, entity.KindSingle, "https://example.com/"+id, entity.Options{}, time.Now().UTC())
}

func TestJobRepository_CreateGet(t *testing.T) {
	repo := NewJobRepository()

	require.NoError(t, repo.Create(newJob("a")))

	got, err := repo.Get("a")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusStarting, got.Status)
	assert.Equal(t, "0%", got.Progress.Percent)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.ErrorDetail)
}

func TestJobRepository_CreateDuplicate(t *testing.T) {
	repo := NewJobRepository()
	require.NoError(t, repo.Create(newJob("a")))

	err := repo.Create(newJob("a"))
	assert.ErrorIs(t, err, entity.ErrDuplicateID)
}

func TestJobRepository_GetNotFound(t *testing.T) {
	repo := NewJobRepository()

	_, err := repo.Get("nonexistent")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestJobRepository_UpdateMerges(t *testing.T) {
	repo := NewJobRepository()
	require.NoError(t, repo.Create(newJob("a")))

	p := entity.Progress{Percent: "50.0%", Speed: "1.0MiB/s", ETA: "00:10"}
	got, err := repo.Update("a", entity.ProgressPatch(p))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDownloading, got.Status)
	assert.Equal(t, "50.0%", got.Progress.Percent)
	assert.Equal(t, "https://example.com/a", got.SourceURL, "fields outside the patch must survive")
}

func TestJobRepository_TerminalIsImmutable(t *testing.T) {
	repo := NewJobRepository()
	require.NoError(t, repo.Create(newJob("a")))

	done, err := repo.Update("a", entity.CompletedPatch(entity.Result{Title: "t"}, entity.Progress{Percent: "100%"}))
	require.NoError(t, err)

	_, err = repo.Update("a", entity.ProgressPatch(entity.Progress{Percent: "1%"}))
	assert.ErrorIs(t, err, entity.ErrTerminal)

	_, err = repo.Update("a", entity.ErrorPatch("late failure"))
	assert.ErrorIs(t, err, entity.ErrTerminal)

	got, err := repo.Get("a")
	require.NoError(t, err)
	assert.Equal(t, done, got)
	assert.Empty(t, got.ErrorDetail)
}

func TestJobRepository_UpdateMissingLeavesErrorRecord(t *testing.T) {
	repo := NewJobRepository()

	rec, err := repo.Update("ghost", entity.ProgressPatch(entity.Progress{Percent: "5%"}))
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, entity.StatusError, rec.Status)

	got, err := repo.Get("ghost")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusError, got.Status)
	assert.NotEmpty(t, got.ErrorDetail)
	assert.NotNil(t, got.FinishedAt)
}

func TestJobRepository_GetReturnsCopy(t *testing.T) {
	repo := NewJobRepository()
	require.NoError(t, repo.Create(newJob("a")))
	_, err := repo.Update("a", entity.CompletedPatch(entity.Result{Title: "original"}, entity.Progress{}))
	require.NoError(t, err)

	got, err := repo.Get("a")
	require.NoError(t, err)
	got.Result.Title = "mutated"

	again, err := repo.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Result.Title)
}

func TestJobRepository_ListOrdered(t *testing.T) {
	repo := NewJobRepository()
	base := time.Now().UTC()
	for i, id := range []string{"c", "a", "b"} {
		j := newJob(id)
		j.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(j))
	}

	list := repo.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 3, repo.CountActive())
}

func TestJobRepository_DeleteFinishedBefore(t *testing.T) {
	repo := NewJobRepository()
	require.NoError(t, repo.Create(newJob("done")))
	require.NoError(t, repo.Create(newJob("running")))
	_, err := repo.Update("done", entity.ErrorPatch("x"))
	require.NoError(t, err)

	assert.Equal(t, 0, repo.DeleteFinishedBefore(time.Now().UTC().Add(-time.Hour)))
	assert.Equal(t, 1, repo.DeleteFinishedBefore(time.Now().UTC().Add(time.Hour)))

	_, err = repo.Get("done")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = repo.Get("running")
	assert.NoError(t, err)
}

func TestJobRepository_ConcurrentWritersAndReaders(t *testing.T) {
	repo := NewJobRepository()
	const jobs = 20
	const updates = 50

	for i := 0; i < jobs; i++ {
		require.NoError(t, repo.Create(newJob(fmt.Sprintf("job-%d", i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		id := fmt.Sprintf("job-%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 1; n <= updates; n++ {
				_, err := repo.Update(id, entity.ProgressPatch(entity.Progress{DownloadedBytes: int64(n)}))
				assert.NoError(t, err)
			}
			_, err := repo.Update(id, entity.CompletedPatch(entity.Result{Title: id}, entity.Progress{DownloadedBytes: updates}))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			var last int64
			for n := 0; n < updates; n++ {
				got, err := repo.Get(id)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, got.Progress.DownloadedBytes, last, "progress must be applied in order")
				last = got.Progress.DownloadedBytes
				_ = repo.List()
			}
		}()
	}
	wg.Wait()

	for _, j := range repo.List() {
		assert.Equal(t, entity.StatusCompleted, j.Status)
		assert.Equal(t, int64(updates), j.Progress.DownloadedBytes)
	}
}
