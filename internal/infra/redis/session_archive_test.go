package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionArchiveStoreAndLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	archive := NewSessionArchive(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	snap := domain.Snapshot{
		PIN:    "123456",
		Status: domain.StatusFinished,
		Players: []domain.PlayerView{
			{ID: "p1", DisplayName: "Ava", Score: 875},
		},
	}
	if err := archive.Store(context.Background(), snap); err != nil {
		t.Fatalf("store: %v", err)
	}
	if !mr.Exists("game:results:123456") {
		t.Fatalf("expected archive key")
	}

	loaded, err := archive.Load(context.Background(), "123456")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Status != domain.StatusFinished || len(loaded.Players) != 1 || loaded.Players[0].Score != 875 {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}
}

func TestSessionArchiveMissingPin(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	archive := NewSessionArchive(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	if _, err := archive.Load(context.Background(), "000000"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}
