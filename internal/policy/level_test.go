package policy

import "testing"

func TestSatisfiesIsMonotone(t *testing.T) {
	for user := 1; user <= 4; user++ {
		for required := 1; required <= 4; required++ {
			got := Level(user).Satisfies(Level(required))
			want := user >= required
			if got != want {
				t.Errorf("Level(%d).Satisfies(%d) = %v, want %v", user, required, got, want)
			}
		}
	}
}

func TestNormalizeCollapsesGarbageToPublic(t *testing.T) {
	cases := []struct {
		in   int
		want Level
	}{
		{1, LevelPublic},
		{2, LevelTechnician},
		{3, LevelStaff},
		{4, LevelAdmin},
		{0, LevelPublic},
		{-7, LevelPublic},
		{5, LevelPublic},
		{99, LevelPublic},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestHomeRouteForIsTotal(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelAdmin, RouteAdminHome},
		{LevelStaff, RouteStaffHome},
		{LevelTechnician, RouteTechnicianHome},
		{LevelPublic, RoutePublicHome},
		{Level(0), RoutePublicHome},
		{Level(42), RoutePublicHome},
	}
	for _, tc := range cases {
		if got := HomeRouteFor(tc.level); got != tc.want {
			t.Errorf("HomeRouteFor(%d) = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestRegisteredHomeRoute(t *testing.T) {
	if _, ok := RegisteredHomeRoute(LevelStaff); !ok {
		t.Fatal("staff should have a registered home route")
	}
	if _, ok := RegisteredHomeRoute(Level(42)); ok {
		t.Fatal("out-of-range level should not have a registered home route")
	}
}

func TestDenialMessagePerLevelWithFallback(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range []Level{LevelTechnician, LevelStaff, LevelAdmin} {
		msg := DenialMessage(l)
		if msg == "" {
			t.Fatalf("DenialMessage(%v) is empty", l)
		}
		if seen[msg] {
			t.Fatalf("DenialMessage(%v) duplicates another level's message", l)
		}
		seen[msg] = true
	}
	// Levels without a dedicated entry share the generic fallback.
	if DenialMessage(LevelPublic) != DenialMessage(Level(9)) {
		t.Fatal("fallback message should cover both level 1 and out-of-range levels")
	}
}

func TestLabels(t *testing.T) {
	if LevelAdmin.Label() == LevelPublic.Label() {
		t.Fatal("labels must differ per level")
	}
	if Level(0).Label() != LevelPublic.Label() {
		t.Fatal("out-of-range label should fall back to the public label")
	}
}
