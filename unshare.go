// unshare.go - proc body unsharer
package tclbc

// unshareBodies duplicates every proc-body literal that analyzeLiteralReferences
// found shared (referenced from more than one site, or mixed with a
// non-proc reference), so that each ProcSite ends up owning a private
// literal-table entry it can safely recompile in place without
// corrupting another reference to the same original literal. When every
// reference to the original is a proc-body reference, the first site to
// reach it keeps it in place -- its BodyNewIndex stays equal to
// BodyOrigIndex, the slot the dedup tables already point at -- and every
// subsequent site sharing that same original gets its own freshly
// allocated copy. When the original also has a non-proc reference, every
// site gets its own copy, the first included, so the original stays
// untouched. No two sites ever end up with the same BodyNewIndex. sites
// is updated in place.
func unshareBodies(img *Image, refs *objRefTable, sites []ProcSite) {
	seenOrig := make(map[int]bool)

	for i := range sites {
		site := &sites[i]
		if !isShared(refs, site.BodyOrigIndex) {
			continue
		}

		if !seenOrig[site.BodyOrigIndex] {
			seenOrig[site.BodyOrigIndex] = true
			if info, ok := refs.Get(site.BodyOrigIndex); !ok || info.numReferences <= info.numProcReferences {
				continue
			}
		}

		original := img.Literals[site.BodyOrigIndex]
		clone := original
		newIdx := img.AddLiteral(clone)

		if info, ok := refs.Get(site.BodyOrigIndex); ok {
			info.numUnshares++
		}

		site.BodyNewIndex = newIdx
	}
}
