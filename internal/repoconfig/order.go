package repoconfig

import (
	"sort"

	"github.com/pelletier/go-toml/v2/unstable"
)

// branchOrder returns the branch names of doc in the order they first
// appear, covering [branches.<name>] headers, dotted keys and an inline
// branches table. Names in known that the scan did not see are appended in
// sorted order, so the result always lists every key of known exactly once.
func branchOrder(doc []byte, known table) []string {
	order := make([]string, 0, len(known))
	seen := make(map[string]bool, len(known))
	add := func(name string) {
		if _, ok := known[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	p := unstable.Parser{}
	p.Reset(doc)
	var current []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			current = keyParts(expr.Key())
			if len(current) >= 2 && current[0] == branchesKey {
				add(current[1])
			}
		case unstable.KeyValue:
			full := append(append([]string{}, current...), keyParts(expr.Key())...)
			switch {
			case len(full) >= 2 && full[0] == branchesKey:
				add(full[1])
			case len(full) == 1 && full[0] == branchesKey && expr.Value().Kind == unstable.InlineTable:
				it := expr.Value().Children()
				for it.Next() {
					if kv := it.Node(); kv.Kind == unstable.KeyValue {
						if parts := keyParts(kv.Key()); len(parts) > 0 {
							add(parts[0])
						}
					}
				}
			}
		}
	}

	var rest []string
	for name := range known {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}
