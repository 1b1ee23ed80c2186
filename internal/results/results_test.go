package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiliankoe/shadowheist/internal/game"
)

func sampleRecord(code string, endedAt time.Time) game.GameRecord {
	return game.GameRecord{
		ID:      "rec-" + code,
		RoomID:  code,
		Winner:  game.WinnerHeroes,
		Message: "The Heroes have successfully completed the heist!",
		EndedAt: endedAt,
		Roles: []game.RoleReveal{
			{Name: "Ann", Role: game.RoleMasterThief},
			{Name: "Bob", Role: game.RoleHacker},
			{Name: "Cid", Role: game.RoleInfiltrator},
		},
		Tasks:    game.TaskProgress{Total: 3, Completed: 3, Sabotaged: 1},
		Banished: []string{"Cid"},
	}
}

func TestFileExporterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.txt")
	e := NewFileExporter(path)
	at := time.Date(2026, 10, 15, 21, 30, 0, 0, time.UTC)

	require.NoError(t, e.Record(context.Background(), sampleRecord("ABC234", at)))
	require.NoError(t, e.Record(context.Background(), sampleRecord("XYZ789", at)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "Shadow Heist - Room ABC234")
	assert.Contains(t, out, "Shadow Heist - Room XYZ789")
	assert.Contains(t, out, "Ended: 2026-10-15 21:30:00")
	assert.Contains(t, out, "- Cid: infiltrator (banished)")
	assert.Contains(t, out, "- Ann: masterThief\n")
	assert.Contains(t, out, "Tasks: 3/3 completed, 1 sabotaged")
	assert.Equal(t, 2, strings.Count(out, "Winner: heroes"))
}

func TestFileExporterBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	e := NewFileExporter(filepath.Join(blocker, "results.txt"))
	err := e.Record(context.Background(), sampleRecord("ABC234", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}

func newArchive(t *testing.T, ttl time.Duration) (*RedisArchive, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisArchive(rdb, ttl), mr
}

func TestRedisArchiveRecordAndRead(t *testing.T) {
	a, mr := newArchive(t, 48*time.Hour)
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 21, 30, 0, 0, time.UTC)

	require.NoError(t, a.Record(ctx, sampleRecord("ABC234", at)))
	require.NoError(t, a.Record(ctx, sampleRecord("XYZ789", at.Add(time.Minute))))
	require.NoError(t, a.Record(ctx, sampleRecord("ABC234", at.Add(2*time.Minute))))

	recent, err := a.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "ABC234", recent[0].RoomID)
	assert.True(t, recent[0].EndedAt.Equal(at.Add(2*time.Minute)))
	assert.Equal(t, "XYZ789", recent[1].RoomID)

	room, err := a.ForRoom(ctx, "ABC234")
	require.NoError(t, err)
	require.Len(t, room, 2)
	assert.True(t, room[0].EndedAt.Before(room[1].EndedAt), "room history should be oldest first")
	assert.Equal(t, []string{"Cid"}, room[0].Banished)
	assert.Equal(t, game.RoleInfiltrator, room[0].Roles[2].Role)

	assert.Equal(t, 48*time.Hour, mr.TTL(keyRoom("ABC234")))
}

func TestRedisArchiveCapsRecent(t *testing.T) {
	a, mr := newArchive(t, 0)
	ctx := context.Background()
	for i := 0; i < recentLimit+5; i++ {
		require.NoError(t, a.Record(ctx, sampleRecord("ABC234", time.Now())))
	}

	all, err := a.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, recentLimit)
	assert.Equal(t, time.Duration(0), mr.TTL(keyRoom("ABC234")), "zero ttl keeps room history forever")
}

func TestRedisArchiveUnavailable(t *testing.T) {
	a, mr := newArchive(t, time.Hour)
	mr.Close()

	err := a.Record(context.Background(), sampleRecord("ABC234", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive game rec-ABC234")
}

func TestDialRedisArchive(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := DialRedisArchive(context.Background(), "redis://"+mr.Addr()+"/0", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = DialRedisArchive(context.Background(), "not a url", time.Hour)
	assert.Error(t, err)
}

type failingRecorder struct{ err error }

func (f failingRecorder) Record(context.Context, game.GameRecord) error { return f.err }

type countingRecorder struct{ n int }

func (c *countingRecorder) Record(context.Context, game.GameRecord) error {
	c.n++
	return nil
}

func TestMultiRunsEveryRecorder(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingRecorder{}
	m := Multi{failingRecorder{err: boom}, counter}

	err := m.Record(context.Background(), sampleRecord("ABC234", time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, counter.n)

	assert.NoError(t, Multi{counter}.Record(context.Background(), sampleRecord("ABC234", time.Now())))
}
