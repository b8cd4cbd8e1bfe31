package service

import (
	"reflect"
	"testing"
)

func TestRecentList_MostRecentFirst(t *testing.T) {
	r := NewRecentList(5)
	r.Add("/a")
	r.Add("/b")
	r.Add("/c")

	if got := r.List(); !reflect.DeepEqual(got, []string{"/c", "/b", "/a"}) {
		t.Errorf("list = %v", got)
	}
}

func TestRecentList_DedupReinsertsAtFront(t *testing.T) {
	r := NewRecentList(5)
	r.Add("/a")
	r.Add("/b")
	r.Add("/a")

	if got := r.List(); !reflect.DeepEqual(got, []string{"/a", "/b"}) {
		t.Errorf("list = %v", got)
	}
}

func TestRecentList_CapAtMax(t *testing.T) {
	r := NewRecentList(5)
	for _, d := range []string{"/1", "/2", "/3", "/4", "/5", "/6"} {
		r.Add(d)
	}

	got := r.List()
	if len(got) != 5 {
		t.Fatalf("len = %d, expected 5", len(got))
	}
	if got[0] != "/6" {
		t.Errorf("front = %s, expected /6", got[0])
	}
	for _, d := range got {
		if d == "/1" {
			t.Error("oldest entry should have been evicted")
		}
	}
}

func TestRecentList_IgnoresEmpty(t *testing.T) {
	r := NewRecentList(5)
	r.Add("")
	if len(r.List()) != 0 {
		t.Error("empty dir should be ignored")
	}
}
