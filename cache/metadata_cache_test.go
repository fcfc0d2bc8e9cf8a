package cache

import (
	"testing"
	"time"

	"ringtoned/model"
)

func TestMetadataCache(t *testing.T) {
	c := NewMetadataCache(2, time.Minute)

	if _, ok := c.Get("a.json"); ok {
		t.Fatal("empty cache reported a hit")
	}
	c.Add("a.json", &model.RingtoneMetadata{ID: "a"})
	c.Add("b.json", &model.RingtoneMetadata{ID: "b"})

	if m, ok := c.Get("a.json"); !ok || m.ID != "a" {
		t.Fatalf("Get(a) = %+v, %v", m, ok)
	}

	c.Add("c.json", &model.RingtoneMetadata{ID: "c"})
	if _, ok := c.Get("b.json"); ok {
		t.Fatal("least recently used entry should be evicted")
	}

	c.Remove("a.json")
	if _, ok := c.Get("a.json"); ok {
		t.Fatal("removed entry still present")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}
