package analyzer

import sitter "github.com/smacker/go-tree-sitter"

// branchNodes are the constructs that each add one to the cyclomatic count.
// elif is its own node in the grammar, so it is listed next to if.
var branchNodes = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"except_clause":       true,
	"except_group_clause": true,
	"boolean_operator":    true,
	"if_clause":           true,
}

// cyclomatic returns 1 plus the number of branch constructs under body,
// nested definitions included. `a and b and c` holds two boolean_operator
// nodes and so adds two.
func cyclomatic(body *sitter.Node) int {
	count := 1
	if body == nil {
		return count
	}
	walk(body, func(n *sitter.Node) bool {
		if branchNodes[n.Type()] {
			count++
		}
		return true
	})
	return count
}
