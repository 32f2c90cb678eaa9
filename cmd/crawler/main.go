package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"insta_crawler/internal/assets"
	"insta_crawler/internal/config"
	"insta_crawler/internal/feed"
	"insta_crawler/internal/filter"
	"insta_crawler/internal/ingest"
	"insta_crawler/internal/media"
	"insta_crawler/internal/storage"
)

func main() {
	tag := flag.String("tag", "", "hashtag to crawl")
	tags := flag.String("tags", "", "extra required tags, comma separated")
	since := flag.String("since", "", "only accept items taken at or after this RFC 3339 time")
	code := flag.String("code", "", "ingest a single post by its share code instead of crawling")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if err := assets.EnsureFolders(cfg.StorageRoot); err != nil {
		log.Error("provision storage folders", "root", cfg.StorageRoot, "error", err)
		os.Exit(1)
	}
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client := feed.NewHTTPClient(http.DefaultClient, cfg.APIBaseURL, cfg.SessionID)
	crawler := feed.NewCrawler(client, cfg.PageDelay, log)
	assetStore := assets.NewDiskStore(http.DefaultClient, store, cfg.StorageRoot)
	attacher := media.New(store, assetStore, log)
	svc := ingest.New(store, attacher, client, crawler, log)

	ctx := context.Background()

	switch {
	case *code != "":
		item, err := svc.FetchByShortcode(ctx, *code)
		if err != nil {
			log.Error("fetch by shortcode", "code", *code, "error", err)
			os.Exit(1)
		}
		rec, err := svc.Save(ctx, item)
		if err != nil {
			log.Error("save item", "pk", item.PK, "error", err)
			os.Exit(1)
		}
		log.Info("post ingested", "code", *code, "external_id", rec.ExternalID)
	case *tag != "":
		fc, err := buildFilterContext(*tag, *tags, *since)
		if err != nil {
			log.Error("build filter criteria", "error", err)
			os.Exit(1)
		}
		saved, err := svc.IngestTag(ctx, *tag, fc)
		if err != nil {
			log.Error("ingest tag", "tag", *tag, "error", err)
			os.Exit(1)
		}
		log.Info("tag ingested", "tag", *tag, "saved", saved)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func buildFilterContext(tag, extra, since string) (filter.Context, error) {
	required := []string{tag}
	for _, t := range strings.Split(extra, ",") {
		if t = strings.TrimSpace(t); t != "" {
			required = append(required, t)
		}
	}

	fc := filter.Context{Tags: required}
	if since != "" {
		start, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter.Context{}, err
		}
		fc.MinTakenAt = start.Unix()
	}
	return fc, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
