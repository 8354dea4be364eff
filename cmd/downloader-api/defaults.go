package main

import (
	"downloader-api/internal/config"
	"downloader-api/internal/worker"
)

// engineDefaults maps the loaded configuration to the per-job engine defaults.
func engineDefaults(c config.AppConfig) worker.Defaults {
	return worker.Defaults{
		DownloadDir:         c.Download.Dir,
		OutputTemplate:      c.Download.OutputTemplate,
		MaxFileSizeBytes:    c.Download.MaxFileSizeMB << 20,
		PlaylistMaxItems:    c.Download.PlaylistMaxItems,
		Retries:             c.YTDLP.Retries,
		FragmentRetries:     c.YTDLP.FragmentRetries,
		ConcurrentFragments: c.YTDLP.ConcurrentFragments,
		HTTPChunkSize:       c.YTDLP.HTTPChunkSize,
		WaitForVideo:        c.YTDLP.WaitForVideo,
		LiveFromStart:       c.YTDLP.LiveFromStart,
		CookiesFile:         c.YTDLP.CookiesFile,
		UserAgent:           c.YTDLP.UserAgent,
		GeoBypassCountry:    c.YTDLP.GeoBypassCountry,
		SleepInterval:       c.YTDLP.SleepInterval,
		MaxSleepInterval:    c.YTDLP.MaxSleepInterval,
	}
}
