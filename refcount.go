// refcount.go - literal reference analyzer
package tclbc

// analyzeLiteralReferences walks img's code counting how many times each
// literal index is pushed, and separately how many of those pushes are a
// proc-body push belonging to one of sites, counting object-table
// references separately from proc-body references for each literal.
// A literal pushed from more than one call site, or pushed as both an
// ordinary value and a proc body, is a shared literal and must be
// unshared before its body can be safely mutated in place.
func analyzeLiteralReferences(img *Image, sites []ProcSite) *objRefTable {
	refs := newObjRefTable(len(img.Literals))

	walkInstructions(img.Code, func(offset int, op Op) {
		switch op {
		case OpPush1:
			idx := int(img.Code[offset+1])
			refs.GetOrCreate(idx).numReferences++
		case OpPush4:
			idx := decodeUint32(img.Code[offset+1 : offset+5])
			refs.GetOrCreate(idx).numReferences++
		}
	})

	for _, site := range sites {
		refs.GetOrCreate(site.BodyOrigIndex).numProcReferences++
	}

	return refs
}

// isShared reports whether the literal at idx needs unsharing before its
// body can be mutated: referenced from more than one proc site, or
// referenced at all as a proc body while also carrying some other
// (non-proc) reference.
func isShared(refs *objRefTable, idx int) bool {
	info, ok := refs.Get(idx)
	if !ok {
		return false
	}
	if info.numProcReferences > 1 {
		return true
	}
	return info.numReferences > info.numProcReferences
}
