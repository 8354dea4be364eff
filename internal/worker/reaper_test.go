package worker_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downloader-api/internal/entity"
	"downloader-api/internal/repository/memory"
	"downloader-api/internal/worker"
)

func TestReaper_SweepRemovesOnlyExpired(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.mp4")
	newFile := filepath.Join(dir, "new.mp4")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newFile, []byte("y"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	repo := memory.NewJobRepository()
	done := entity.NewJob("done", entity.KindSingle, "u", entity.Options{}, testNow)
	active := entity.NewJob("active", entity.KindSingle, "u", entity.Options{}, testNow)
	require.NoError(t, repo.Create(done))
	require.NoError(t, repo.Create(active))
	_, err := repo.Update(done.ID, entity.ErrorPatch("x"))
	require.NoError(t, err)

	r := worker.NewReaper(dir, time.Hour, time.Nanosecond, time.Minute, repo, discardLogger())
	time.Sleep(time.Millisecond)
	files, records := r.Sweep()

	assert.Equal(t, 1, files)
	assert.Equal(t, 1, records)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, newFile)
	assert.DirExists(t, filepath.Join(dir, "sub"))

	_, err = repo.Get(done.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = repo.Get(active.ID)
	assert.NoError(t, err)
}

func TestReaper_DisabledTTLs(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "old.mp4")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(f, past, past))

	r := worker.NewReaper(dir, 0, 0, time.Minute, memory.NewJobRepository(), discardLogger())
	files, records := r.Sweep()
	assert.Zero(t, files)
	assert.Zero(t, records)
	assert.FileExists(t, f)
}

func TestReaper_MissingDir(t *testing.T) {
	r := worker.NewReaper(filepath.Join(t.TempDir(), "absent"), time.Hour, 0, time.Minute, nil, discardLogger())
	files, _ := r.Sweep()
	assert.Zero(t, files)
}
