package loader

import "testing"

func TestIsCircularFile(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"/data/circulars/raleys-weekly.pdf", true},
		{"/data/circulars/RALEYS-WEEKLY.PDF", true},
		{"/data/circulars/notes.txt", false},
		{"/data/circulars/raleys-weekly.pdf.part", false},
		{"/data/circulars/noextension", false},
	}
	for _, tc := range cases {
		if got := isCircularFile(tc.name); got != tc.want {
			t.Errorf("isCircularFile(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
