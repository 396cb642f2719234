// Package depgraph parses spec dependency declarations and computes the
// execution schedule for a batch.
//
// A spec file may open with a `---` fenced metadata block declaring the
// names of specs it depends on. The package validates that every declared
// dependency exists in the batch, detects cycles (reporting the exact cycle
// path), and partitions the batch into levels: every dependency lives in a
// strictly earlier level than its dependents, and members within a level are
// alphabetically ordered so scheduling is reproducible.
//
//	specs := []depgraph.Spec{...}
//	levels, err := depgraph.Levels(specs)
//	if err != nil {
//	    // DEPENDENCY_CYCLE or UNRESOLVED_DEPENDENCY; the batch must not run
//	}
package depgraph
