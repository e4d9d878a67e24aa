package manifest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name         string
		previous     Manifest
		havePrevious bool
		current      Manifest
		exp          []string
	}{
		{
			name: "NoPreviousSyncsEverything",
			current: Manifest{
				{Path: "bin", Digest: "1"},
				{Path: "sym", Digest: "2"},
			},
			exp: []string{"bin", "sym"},
		},
		{
			name:         "Unchanged",
			havePrevious: true,
			previous:     Manifest{{Path: "bin", Digest: "1"}},
			current:      Manifest{{Path: "bin", Digest: "1"}},
		},
		{
			name:         "Modified",
			havePrevious: true,
			previous:     Manifest{{Path: "bin", Digest: "1"}, {Path: "a.png", Digest: "2"}},
			current:      Manifest{{Path: "bin", Digest: "1"}, {Path: "a.png", Digest: "3"}},
			exp:          []string{"a.png"},
		},
		{
			name:         "Added",
			havePrevious: true,
			previous:     Manifest{{Path: "bin", Digest: "1"}},
			current:      Manifest{{Path: "bin", Digest: "1"}, {Path: "new", Digest: "2"}},
			exp:          []string{"new"},
		},
		{
			name:         "RemovedPathsAreIgnored",
			havePrevious: true,
			previous:     Manifest{{Path: "bin", Digest: "1"}, {Path: "gone", Digest: "2"}},
			current:      Manifest{{Path: "bin", Digest: "1"}},
		},
		{
			// Inserting a file at the front shifts every line. A positional
			// comparison would report all of them.
			name:         "InsertionDoesNotShiftComparison",
			havePrevious: true,
			previous: Manifest{
				{Path: "assets/b", Digest: "b"},
				{Path: "assets/c", Digest: "c"},
			},
			current: Manifest{
				{Path: "assets/a", Digest: "a"},
				{Path: "assets/b", Digest: "b"},
				{Path: "assets/c", Digest: "c"},
			},
			exp: []string{"assets/a"},
		},
		{
			name:         "PlaceholdersAreNeverTransferred",
			havePrevious: false,
			current:      Manifest{{}, {Path: "bin", Digest: "1"}},
			exp:          []string{"bin"},
		},
		{
			name:         "EmptyPreviousManifest",
			havePrevious: true,
			previous:     Manifest{},
			current:      Manifest{{Path: "bin", Digest: "1"}},
			exp:          []string{"bin"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			actual := Diff(test.previous, test.havePrevious, test.current)
			assert.Equal(t, test.exp, Manifest(actual).Paths())
		})
	}
}

func TestDiffIgnoresOrder(t *testing.T) {
	previous := Manifest{
		{Path: "bin", Digest: "1"},
		{Path: "sym", Digest: "2"},
		{Path: "assets/a", Digest: "3"},
		{Path: "assets/b", Digest: "4"},
		{Path: "assets/c", Digest: "5"},
	}
	current := Manifest{
		{Path: "bin", Digest: "1"},
		{Path: "sym", Digest: "changed"},
		{Path: "assets/a", Digest: "3"},
		{Path: "assets/b", Digest: "changed"},
		{Path: "assets/c", Digest: "5"},
		{Path: "assets/d", Digest: "6"},
	}
	exp := []string{"assets/b", "assets/d", "sym"}

	shuffle := func(m Manifest) Manifest {
		cpy := append(Manifest{}, m...)
		rand.Shuffle(len(cpy), func(i, j int) { cpy[i], cpy[j] = cpy[j], cpy[i] })
		return cpy
	}

	for i := 0; i < 20; i++ {
		actual := Manifest(Diff(shuffle(previous), true, shuffle(current)))
		assert.ElementsMatch(t, exp, actual.Paths())
	}
}
