package tclbc

import "fmt"

// objRefInfo tracks how a single literal-table entry is referenced during
// one compile, keyed by its original literal index.
type objRefInfo struct {
	numReferences     int // uses anywhere in code as a push operand
	numProcReferences int // uses as a proc body (included in numReferences)
	numUnshares       int // copies made so far by the body unsharer
}

// objRefBucket is one hash-chain slot of an objRefTable.
type objRefBucket struct {
	key      int
	value    *objRefInfo
	occupied bool
	next     *objRefBucket
}

// objRefTable is a hash map from literal index to *objRefInfo, filled by
// the literal reference analyzer and read by the body unsharer to track
// per-literal reference counts across one compile. Its lifetime is
// exactly one PostProcess context.
type objRefTable struct {
	buckets []objRefBucket
	size    int
	count   int
}

// newObjRefTable creates a table sized for roughly initialSize entries.
func newObjRefTable(initialSize int) *objRefTable {
	if initialSize < 16 {
		initialSize = 16
	}
	return &objRefTable{
		buckets: make([]objRefBucket, initialSize),
		size:    initialSize,
	}
}

// hash computes the bucket hash of a literal index.
func (t *objRefTable) hash(key int) uint64 {
	h := uint64(14695981039346656037)
	u := uint64(key)
	for i := 0; i < 8; i++ {
		h ^= (u >> (uint(i) * 8)) & 0xff
		h *= 1099511628211
	}
	return h
}

// Get retrieves the record stored for key, if any.
func (t *objRefTable) Get(key int) (*objRefInfo, bool) {
	idx := t.hash(key) % uint64(t.size)
	bucket := &t.buckets[idx]

	if bucket.occupied && bucket.key == key {
		return bucket.value, true
	}

	current := bucket.next
	for current != nil {
		if current.key == key {
			return current.value, true
		}
		current = current.next
	}

	return nil, false
}

// GetOrCreate returns the record for key, creating an empty one on first
// access.
func (t *objRefTable) GetOrCreate(key int) *objRefInfo {
	if v, ok := t.Get(key); ok {
		return v
	}
	v := &objRefInfo{}
	t.set(key, v)
	return v
}

func (t *objRefTable) set(key int, value *objRefInfo) {
	idx := t.hash(key) % uint64(t.size)
	bucket := &t.buckets[idx]

	if !bucket.occupied {
		bucket.key = key
		bucket.value = value
		bucket.occupied = true
		t.count++
		return
	}

	if bucket.key == key {
		bucket.value = value
		return
	}

	current := bucket.next
	prev := bucket
	for current != nil {
		if current.key == key {
			current.value = value
			return
		}
		prev = current
		current = current.next
	}

	prev.next = &objRefBucket{key: key, value: value, occupied: true}
	t.count++

	if float64(t.count)/float64(t.size) > 0.75 {
		t.resize()
	}
}

// resize doubles the table and rehashes every entry.
func (t *objRefTable) resize() {
	old := t.buckets
	t.size *= 2
	t.buckets = make([]objRefBucket, t.size)
	t.count = 0

	for i := range old {
		bucket := &old[i]
		if bucket.occupied {
			t.set(bucket.key, bucket.value)
		}
		current := bucket.next
		for current != nil {
			t.set(current.key, current.value)
			current = current.next
		}
	}
}

// Keys returns every literal index with a record, unordered.
func (t *objRefTable) Keys() []int {
	keys := make([]int, 0, t.count)

	for i := range t.buckets {
		bucket := &t.buckets[i]
		if bucket.occupied {
			keys = append(keys, bucket.key)
		}
		current := bucket.next
		for current != nil {
			keys = append(keys, current.key)
			current = current.next
		}
	}

	return keys
}

func (t *objRefTable) String() string {
	return fmt.Sprintf("objRefTable{count: %d, size: %d}", t.count, t.size)
}
