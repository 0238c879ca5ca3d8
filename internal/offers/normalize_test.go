package offers

import "testing"

func TestNormalizeQuery(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2 tablespoons white sugar", "sugar"},
		{"1 pound lean ground beef", "ground beef"},
		{"3 cups all-purpose flour", "flour"},
		{"unsalted butter, cut into 4 pieces", "butter"},
		{"sprigs thyme", "thyme"},
		{"cloves garlic, crushed and cut in half", "garlic"},
		{"olive oil", "olive oil"},
		{"jumbo shrimp (21 to 25 count), peeled and deveined, tails off", "shrimp"},
		{"jalapeño", "jalapeno"},
		{"onions", "onion"},
		{"hamburger meat", "ground beef"},
	}
	for _, tc := range cases {
		if got := NormalizeQuery(tc.in); got != tc.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeQueryFallsBackToOriginal(t *testing.T) {
	// A query that is nothing but stripped tokens returns the trimmed input.
	if got := NormalizeQuery("  2 cups  "); got != "2 cups" {
		t.Errorf("got %q", got)
	}
}

func TestMatchesQuery(t *testing.T) {
	if !matchesQuery("ground beef", "80% Lean Ground Beef Value Pack") {
		t.Error("expected direct match")
	}
	if !matchesQuery("ground beef", "Fresh Hamburger Patties") {
		t.Error("expected synonym match")
	}
	if !matchesQuery("jalapeno", "Jalapeno Peppers") {
		t.Error("expected singularized match")
	}
	if matchesQuery("thyme", "Motor Oil 5W-30") {
		t.Error("unexpected match")
	}
}
