package topology

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// The station adjacency list is hand-maintained HCL:
//
//	station "TH65" {
//	  adjacent = ["TH66S", "TH64"]
//	}
//
// Order matters: the Nth entry is the station selected by an N-deep bracket
// run in a lock expression.

type adjacencyRoot struct {
	Stations []adjacencyBlock `hcl:"station,block"`
}

type adjacencyBlock struct {
	ID       string   `hcl:"id,label"`
	Adjacent []string `hcl:"adjacent"`
}

// ParseAdjacency decodes adjacency HCL source. filename is used in
// diagnostics only.
func ParseAdjacency(src []byte, filename string) (map[string][]string, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	var root adjacencyRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}

	adjacency := make(map[string][]string, len(root.Stations))
	for _, block := range root.Stations {
		if _, dup := adjacency[block.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate station block %q", filename, block.ID)
		}
		adjacency[block.ID] = block.Adjacent
	}
	return adjacency, nil
}

// LoadAdjacency reads and decodes an adjacency HCL file.
func LoadAdjacency(path string) (map[string][]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading adjacency: %w", err)
	}
	return ParseAdjacency(src, path)
}
