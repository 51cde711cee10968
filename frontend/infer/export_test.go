package infer

// Propagate runs one more propagation pass over a solved table
func Propagate(t *Table, collections []*Collection) bool {
	return t.propagate(newFlowGraph(collections))
}

func LongestChain(collections []*Collection) int {
	return newFlowGraph(collections).longestChain()
}
