package matching

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanonicalPairOrders(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	lo, hi := CanonicalPair(b, a)
	if lo != a || hi != b {
		t.Fatalf("CanonicalPair(b,a) = (%s,%s), want lexicographic order", lo, hi)
	}
	lo2, hi2 := CanonicalPair(a, b)
	if lo2 != lo || hi2 != hi {
		t.Fatal("canonical pair must not depend on argument order")
	}
}

func TestCanonicalPairSelf(t *testing.T) {
	id := uuid.New()
	lo, hi := CanonicalPair(id, id)
	if lo != id || hi != id {
		t.Fatal("self pair must map to itself")
	}
}
