package merger

import (
	"fmt"
	"io"

	"github.com/viant/i3smerge/i3s"
)

// InputReport summarizes one merge input
type InputReport struct {
	Path    string      `json:"path" yaml:"path"`
	Layout  i3s.Layout  `json:"layout" yaml:"layout"`
	Version string      `json:"version" yaml:"version"`
	Offset  int         `json:"offset" yaml:"offset"`
	Nodes   int         `json:"nodes" yaml:"nodes"`
	Root    int         `json:"root" yaml:"root"`
	Assets  int         `json:"assets" yaml:"assets"`
	IDs     map[int]int `json:"resourceIds,omitempty" yaml:"resourceIds,omitempty"`
}

// Report summarizes a merge
type Report struct {
	Output  string         `json:"output" yaml:"output"`
	ID      string         `json:"id" yaml:"id"`
	Layout  i3s.Layout     `json:"layout" yaml:"layout"`
	Version string         `json:"version" yaml:"version"`
	Nodes   int            `json:"nodes" yaml:"nodes"`
	Roots   []int          `json:"roots" yaml:"roots"`
	Forced  bool           `json:"forced,omitempty" yaml:"forced,omitempty"`
	Digest  string         `json:"digest" yaml:"digest"`
	Inputs  []*InputReport `json:"inputs" yaml:"inputs"`
}

// Print writes a human readable summary
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Merge -> %s\n", r.Output)
	fmt.Fprintf(w, "Layout: %s, version: %s\n", r.Layout, r.Version)
	if r.Forced {
		fmt.Fprintln(w, "Version check: forced")
	}
	for _, input := range r.Inputs {
		fmt.Fprintf(w, "Input %s: %d nodes, %d assets, offset %d, root %d\n", input.Path, input.Nodes, input.Assets, input.Offset, input.Root)
	}
	fmt.Fprintf(w, "Merged: %d nodes, roots %v\n", r.Nodes, r.Roots)
	fmt.Fprintf(w, "Digest: %s\n", r.Digest)
}
