package common

import "testing"

func TestGenEntitySeq(t *testing.T) {
	seq := GenEntitySeq()
	if seq.IsNil() {
		t.Fail()
	}
	if GenEntitySeq() <= seq {
		t.Errorf("entity seq should be monotonic")
	}
	if !EntitySeq(0).IsNil() {
		t.Fail()
	}
}

func TestRegionHandle(t *testing.T) {
	if !RegionHandle(0).IsNil() {
		t.Fail()
	}
	h := RegionHandle(123)
	if h.IsNil() {
		t.Fail()
	}
	if h.String() != "Sim<123>" {
		t.Errorf("bad handle string: %s", h)
	}
}

func TestEntityName(t *testing.T) {
	if !(EntityName{}).IsNil() {
		t.Fail()
	}

	n := ObjectName(RegionHandle(7), 42)
	if n.IsNil() {
		t.Fail()
	}
	if n.Kind != KindObject || n.Region != 7 || n.Local != 42 {
		t.Errorf("bad object name: %+v", n)
	}
	if n.String() != "object.7.42" {
		t.Errorf("bad name string: %s", n)
	}

	a := AvatarName(RegionHandle(7), 42)
	if a == n {
		t.Errorf("avatar and object names must not collide")
	}
	if a.Kind != KindAvatar {
		t.Fail()
	}
}
