package post

import "testing"

func TestPost(t *testing.T) {
	var a int
	Post(func() {
		a = 1
	})
	Tick()
	if a != 1 {
		t.Errorf("a should be 1")
	}
}

func TestPostFromCallback(t *testing.T) {
	var a int
	Post(func() {
		Post(func() {
			a = 2
		})
	})
	Tick() // drains callbacks posted by callbacks too
	if a != 2 {
		t.Errorf("a should be 2")
	}
}

func TestPostPanicIsolated(t *testing.T) {
	var a int
	Post(func() {
		panic("boom")
	})
	Post(func() {
		a = 3
	})
	Tick()
	if a != 3 {
		t.Errorf("a should be 3")
	}
}
