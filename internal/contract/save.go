package contract

// SaveResult counts the rows a write operation touched. AffectedRows is
// always Created + Updated + Deleted.
type SaveResult struct {
	Created      int
	Updated      int
	Deleted      int
	AffectedRows int
}

// Add accumulates counts and keeps AffectedRows in step.
func (r *SaveResult) Add(created, updated, deleted int) {
	r.Created += created
	r.Updated += updated
	r.Deleted += deleted
	r.AffectedRows = r.Created + r.Updated + r.Deleted
}
