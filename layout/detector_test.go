package layout_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/i3s/i3stest"
	"github.com/viant/i3smerge/layout"
)

func TestDetector_Detect(t *testing.T) {
	var testCases = []struct {
		description string
		pkg         i3stest.Package
		files       map[string][]byte
		expect      i3s.Layout
		expectErr   error
	}{
		{
			description: "paged compact",
			pkg:         i3stest.Package{Layout: i3s.PagedCompact, Nodes: i3stest.Tree(3)},
			expect:      i3s.PagedCompact,
		},
		{
			description: "folder compact",
			pkg:         i3stest.Package{Layout: i3s.FolderCompact, Nodes: i3stest.Tree(3)},
			expect:      i3s.FolderCompact,
		},
		{
			description: "standard",
			pkg:         i3stest.Package{Layout: i3s.Standard, Nodes: i3stest.Tree(3)},
			expect:      i3s.Standard,
		},
		{
			description: "node pages win over node folders",
			pkg:         i3stest.Package{Layout: i3s.FolderCompact, Nodes: i3stest.Tree(2)},
			files:       map[string][]byte{"nodepages/0.json": []byte(`{"nodes":[]}`)},
			expect:      i3s.PagedCompact,
		},
		{
			description: "folders without index document",
			pkg:         i3stest.Package{Layout: i3s.Unknown},
			files:       map[string][]byte{"nodes/0/geometries/0.bin": []byte("x")},
			expectErr:   i3s.ErrUnrecognizedLayout,
		},
		{
			description: "non numeric page names",
			pkg:         i3stest.Package{Layout: i3s.Unknown},
			files:       map[string][]byte{"nodepages/first.json.gz": []byte("x")},
			expectErr:   i3s.ErrUnrecognizedLayout,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "pkg")
			testCase.pkg.Files = testCase.files
			i3stest.Write(t, root, testCase.pkg)
			actual, err := layout.NewDetector().Detect(root)
			if testCase.expectErr != nil {
				assert.True(t, errors.Is(err, testCase.expectErr), "%v", err)
				assert.Equal(t, i3s.Unknown, actual)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, testCase.expect, actual)
		})
	}
}

func TestNames(t *testing.T) {
	number, ok := layout.PageNumber("12.json.gz")
	assert.True(t, ok)
	assert.Equal(t, 12, number)
	_, ok = layout.PageNumber("12.bin")
	assert.False(t, ok)
	id, ok := layout.DescriptorID("7.json")
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	_, ok = layout.DescriptorID("-1.json")
	assert.False(t, ok)
}
