package domain

// OperationKind classifies one installer operation.
type OperationKind string

const (
	// OpRemove removes an installed package that is no longer locked.
	OpRemove OperationKind = "remove"

	// OpUpdate replaces an installed package with a different pin.
	OpUpdate OperationKind = "update"

	// OpInstall materializes a newly locked package.
	OpInstall OperationKind = "install"
)

// Operation is one unit of work for the installer collaborator.
type Operation struct {
	Kind    OperationKind
	Package Package

	// Previous is the pin being replaced; set only for OpUpdate.
	Previous Package
}

// OperationsFromDiff orders a diff into installer operations: removals
// first, then updates, then installs, to bound peak disk usage.
func OperationsFromDiff(d Diff) []Operation {
	ops := make([]Operation, 0, d.Count())
	for _, pkg := range d.Removed {
		ops = append(ops, Operation{Kind: OpRemove, Package: pkg})
	}
	for _, change := range d.Changed {
		ops = append(ops, Operation{Kind: OpUpdate, Package: change.New, Previous: change.Old})
	}
	for _, pkg := range d.Added {
		ops = append(ops, Operation{Kind: OpInstall, Package: pkg})
	}
	return ops
}
