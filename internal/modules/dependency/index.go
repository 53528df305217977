package dependency

// PathIndex assigns increasing integer ids to concept paths in the order
// they are first seen. All graph work happens on the ids.
type PathIndex struct {
	paths []string
	ids   map[string]int
}

func newPathIndex(capacity int) *PathIndex {
	return &PathIndex{
		paths: make([]string, 0, capacity),
		ids:   make(map[string]int, capacity),
	}
}

// add returns the id of p, assigning the next one if p is new.
func (x *PathIndex) add(p string) int {
	if id, ok := x.ids[p]; ok {
		return id
	}
	id := len(x.paths)
	x.ids[p] = id
	x.paths = append(x.paths, p)
	return id
}

func (x *PathIndex) Lookup(p string) (int, bool) {
	id, ok := x.ids[p]
	return id, ok
}

func (x *PathIndex) Path(id int) string {
	if id < 0 || id >= len(x.paths) {
		return ""
	}
	return x.paths[id]
}

func (x *PathIndex) Len() int { return len(x.paths) }
