package common

import "testing"

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Add("alpha")
	ss.Add("beta")
	if !ss.Contains("alpha") || !ss.Contains("beta") {
		t.Fail()
	}
	if ss.Contains("gamma") {
		t.Fail()
	}
	ss.Remove("alpha")
	if ss.Contains("alpha") {
		t.Fail()
	}
	if len(ss.ToList()) != 1 {
		t.Fail()
	}
}

func TestRegionHandleSet(t *testing.T) {
	hs := RegionHandleSet{}
	hs.Add(RegionHandle(1))
	hs.Add(RegionHandle(2))
	if !hs.Contains(1) || !hs.Contains(2) || hs.Contains(3) {
		t.Fail()
	}
	hs.Del(1)
	if hs.Contains(1) {
		t.Fail()
	}
}
