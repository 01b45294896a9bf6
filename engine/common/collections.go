package common

// StringSet is a set of strings
type StringSet map[string]struct{}

// Contains checks if StringSet contains the string
func (ss StringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

// Add adds the string to StringSet
func (ss StringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

// Remove removes the string from StringSet
func (ss StringSet) Remove(elem string) {
	delete(ss, elem)
}

// ToList convert StringSet to string slice
func (ss StringSet) ToList() []string {
	keys := make([]string, 0, len(ss))
	for s := range ss {
		keys = append(keys, s)
	}
	return keys
}

// RegionHandleSet is a set of region handles
type RegionHandleSet map[RegionHandle]struct{}

// Contains checks if the handle is in the RegionHandleSet
func (hs RegionHandleSet) Contains(h RegionHandle) bool {
	_, ok := hs[h]
	return ok
}

// Add adds a handle to the RegionHandleSet
func (hs RegionHandleSet) Add(h RegionHandle) {
	hs[h] = struct{}{}
}

// Del removes a handle from the RegionHandleSet
func (hs RegionHandleSet) Del(h RegionHandle) {
	delete(hs, h)
}
