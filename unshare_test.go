package tclbc

import "testing"

// TestUnshareBodiesKeepsFirstSiteInPlace checks that the first site to
// reach a shared original index is left pointing at that same index,
// not cloned.
func TestUnshareBodiesKeepsFirstSiteInPlace(t *testing.T) {
	img := NewImage()
	bodyIdx := img.AddLiteral(Literal{Kind: LitProcBody, Str: "return 1"})

	sites := []ProcSite{
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
	}

	refs := newObjRefTable(4)
	refs.GetOrCreate(bodyIdx).numProcReferences = 2
	refs.GetOrCreate(bodyIdx).numReferences = 2

	unshareBodies(img, refs, sites)

	if sites[0].BodyNewIndex != bodyIdx {
		t.Fatalf("first site BodyNewIndex = %d, want %d (unchanged)", sites[0].BodyNewIndex, bodyIdx)
	}
}

// TestUnshareBodiesGivesEachSubsequentSiteADistinctCopy checks that N
// sites sharing one original body literal end up with N-1 distinct new
// literal-table slots, none of which collide with each other or with
// the original.
func TestUnshareBodiesGivesEachSubsequentSiteADistinctCopy(t *testing.T) {
	img := NewImage()
	bodyIdx := img.AddLiteral(Literal{Kind: LitProcBody, Str: "return 1"})

	sites := []ProcSite{
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
	}

	refs := newObjRefTable(4)
	refs.GetOrCreate(bodyIdx).numProcReferences = 3
	refs.GetOrCreate(bodyIdx).numReferences = 3

	unshareBodies(img, refs, sites)

	seen := map[int]bool{sites[0].BodyNewIndex: true}
	for i := 1; i < len(sites); i++ {
		idx := sites[i].BodyNewIndex
		if idx == bodyIdx {
			t.Fatalf("site %d kept the original index %d, want a private copy", i, bodyIdx)
		}
		if seen[idx] {
			t.Fatalf("site %d reused index %d already claimed by another site", i, idx)
		}
		seen[idx] = true
	}
}

// TestUnshareBodiesSkipsUnsharedLiteral checks that a body literal with
// exactly one reference and no proc/non-proc mix is left untouched.
func TestUnshareBodiesSkipsUnsharedLiteral(t *testing.T) {
	img := NewImage()
	bodyIdx := img.AddLiteral(Literal{Kind: LitProcBody, Str: "return 1"})

	sites := []ProcSite{
		{BodyOrigIndex: bodyIdx, BodyNewIndex: bodyIdx},
	}

	refs := newObjRefTable(4)
	refs.GetOrCreate(bodyIdx).numProcReferences = 1
	refs.GetOrCreate(bodyIdx).numReferences = 1

	unshareBodies(img, refs, sites)

	if sites[0].BodyNewIndex != bodyIdx {
		t.Fatalf("got BodyNewIndex %d, want unchanged %d", sites[0].BodyNewIndex, bodyIdx)
	}
	if len(img.Literals) != 1 {
		t.Fatalf("got %d literals, want 1 (no clone made)", len(img.Literals))
	}
}

func TestIsSharedTrueForMultipleProcReferences(t *testing.T) {
	refs := newObjRefTable(4)
	refs.GetOrCreate(0).numProcReferences = 2
	refs.GetOrCreate(0).numReferences = 2

	if !isShared(refs, 0) {
		t.Fatal("want shared for a body referenced by two proc sites")
	}
}

func TestIsSharedTrueForMixedProcAndNonProcReference(t *testing.T) {
	refs := newObjRefTable(4)
	refs.GetOrCreate(0).numProcReferences = 1
	refs.GetOrCreate(0).numReferences = 2

	if !isShared(refs, 0) {
		t.Fatal("want shared for a body also referenced outside its proc site")
	}
}

func TestIsSharedFalseForSingleProcReference(t *testing.T) {
	refs := newObjRefTable(4)
	refs.GetOrCreate(0).numProcReferences = 1
	refs.GetOrCreate(0).numReferences = 1

	if isShared(refs, 0) {
		t.Fatal("want not shared for a body referenced from exactly one proc site and nowhere else")
	}
}

func TestIsSharedFalseForUnknownIndex(t *testing.T) {
	refs := newObjRefTable(4)
	if isShared(refs, 99) {
		t.Fatal("want not shared for an index with no recorded references")
	}
}
