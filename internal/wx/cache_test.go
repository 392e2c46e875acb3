package wx

import (
	"testing"
	"time"
)

func datasetAt(ts int64) *Dataset {
	return &Dataset{
		Source:    "test",
		FetchedAt: time.Unix(ts, 0).UTC(),
		Reports:   []Report{{StationID: "ENZV", TempC: 12}},
	}
}

func TestCacheWriteLoadRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)

	want := datasetAt(1756000000)
	if err := cache.Write(want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.FetchedAt.Equal(want.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, want.FetchedAt)
	}
	if len(got.Reports) != 1 || got.Reports[0].StationID != "ENZV" {
		t.Errorf("reports = %+v", got.Reports)
	}
}

func TestCacheLoadsNewest(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)

	for _, ts := range []int64{1756000000, 1756000300, 1756000100} {
		if err := cache.Write(datasetAt(ts)); err != nil {
			t.Fatalf("write %d: %v", ts, err)
		}
	}

	got, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FetchedAt.Unix() != 1756000300 {
		t.Errorf("loaded snapshot at %d, want newest 1756000300", got.FetchedAt.Unix())
	}
}

func TestCachePrunesOldSnapshots(t *testing.T) {
	cache := NewCache(t.TempDir(), 2)

	for ts := int64(1756000000); ts < 1756000500; ts += 100 {
		if err := cache.Write(datasetAt(ts)); err != nil {
			t.Fatalf("write %d: %v", ts, err)
		}
	}

	files, err := cache.listFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files after pruning, got %d: %v", len(files), files)
	}

	// Newest snapshot must survive the prune.
	got, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FetchedAt.Unix() != 1756000400 {
		t.Errorf("newest snapshot = %d, want 1756000400", got.FetchedAt.Unix())
	}
}

func TestCacheEmptyDir(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)
	if _, err := cache.LoadLatest(); err == nil {
		t.Error("expected error for empty cache dir")
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	if store.Get() != nil {
		t.Error("empty store should return nil")
	}
	if store.AgeSeconds() != -1 {
		t.Errorf("empty store age = %f, want -1", store.AgeSeconds())
	}

	ds := datasetAt(time.Now().Unix() - 60)
	store.Set(ds)
	if store.Get() != ds {
		t.Error("Get should return the stored dataset")
	}
	age := store.AgeSeconds()
	if age < 59 || age > 62 {
		t.Errorf("age = %f, want ~60", age)
	}
}
