// Package mocks holds gomock doubles for the engine and worker ports.
//
// Regenerate after interface changes with:
//
//	go generate ./internal/mocks
package mocks

// Engine and PlaylistLister from internal/engine:
// Extract, Download, ListPlaylist
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=engine_mock.go downloader-api/internal/engine Engine,PlaylistLister

// Publisher and Archive from internal/worker:
// Publish, Save
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=worker_mock.go downloader-api/internal/worker Publisher,Archive
