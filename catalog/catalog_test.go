package catalog

import "testing"

func TestEstablishmentsAreIndexedInDeclarationOrder(t *testing.T) {
	all := Establishments()
	if len(all) != 15 {
		t.Fatalf("expected 15 establishments, got %d", len(all))
	}
	for i, e := range all {
		if e.Index != i {
			t.Errorf("%s: expected index %d, got %d", e.ID, i, e.Index)
		}
	}
	if all[0].ID != WheatField {
		t.Errorf("expected %s first, got %s", WheatField, all[0].ID)
	}
}

func TestLookupEstablishment(t *testing.T) {
	tv, ok := LookupEstablishment(TVStation)
	if !ok {
		t.Fatal("tv-station should be in the catalog")
	}
	if tv.Effect.Kind != EffectStealChoice || tv.Effect.Amount != 5 {
		t.Errorf("unexpected tv-station effect: %+v", tv.Effect)
	}
	if tv.MaxOwned != 1 {
		t.Errorf("expected tv-station cap of 1, got %d", tv.MaxOwned)
	}

	if _, ok := LookupEstablishment("casino"); ok {
		t.Error("unknown ids should not resolve")
	}
}

func TestActivates(t *testing.T) {
	bakery, _ := LookupEstablishment(Bakery)
	for roll, want := range map[int]bool{1: false, 2: true, 3: true, 4: false} {
		if got := bakery.Activates(roll); got != want {
			t.Errorf("bakery.Activates(%d) = %v, want %v", roll, got, want)
		}
	}
}

func TestLandmarks(t *testing.T) {
	all := Landmarks()
	if len(all) != 4 {
		t.Fatalf("expected 4 landmarks, got %d", len(all))
	}
	rt, ok := LookupLandmark(RadioTower)
	if !ok || rt.Cost != 22 {
		t.Errorf("unexpected radio tower: %+v (found=%v)", rt, ok)
	}
}

func TestStartingMarket(t *testing.T) {
	market := StartingMarket()
	if len(market) != 15 {
		t.Fatalf("expected a count for every establishment, got %d", len(market))
	}
	if market[Stadium] != 4 || market[WheatField] != 6 {
		t.Errorf("unexpected starting counts: stadium=%d wheat=%d", market[Stadium], market[WheatField])
	}

	market[WheatField] = 0
	if StartingMarket()[WheatField] != 6 {
		t.Error("StartingMarket must return a fresh map")
	}
}

func TestSortedCardIDs(t *testing.T) {
	got := SortedCardIDs(map[string]int{Mine: 1, "zzz": 1, WheatField: 2, Cafe: 0})
	want := []string{WheatField, Cafe, Mine, "zzz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
