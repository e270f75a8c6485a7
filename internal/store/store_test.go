package store

import (
	"errors"
	"testing"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
)

const issTLE = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057`

func TestCreateAndGet(t *testing.T) {
	s := New()

	rec, err := s.Create("Station", issTLE)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.ID != 1 || rec.Name != "Station" {
		t.Errorf("Create() = %+v, want id 1 name Station", rec)
	}

	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ElementsText != issTLE {
		t.Error("Get() returned different element text than stored")
	}
}

func TestCreateDefaultsName(t *testing.T) {
	s := New()
	rec, err := s.Create("", issTLE)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q, want the element set's name line", rec.Name)
	}
}

func TestCreateRejectsInvalidElements(t *testing.T) {
	s := New()
	_, err := s.Create("bad", "not an element set")
	var malformed *elements.MalformedLineError
	if !errors.As(err, &malformed) {
		t.Fatalf("Create() error = %v, want MalformedLineError", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d after failed create, want 0", s.Count())
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(42)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Get() error = %v, want NotFoundError", err)
	}
}

func TestListOrdered(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		if _, err := s.Create("Station", issTLE); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}
	list := s.List()
	if len(list) != 5 {
		t.Fatalf("len(List()) = %d, want 5", len(list))
	}
	for i, rec := range list {
		if rec.ID != i+1 {
			t.Errorf("List()[%d].ID = %d, want %d", i, rec.ID, i+1)
		}
	}
}
