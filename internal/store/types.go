package store

// FormFields are the editable fields of a student form.
type FormFields struct {
	FirstName  string
	LastName   string
	Faculty    string
	Motivation string
}

// UpdateResult describes how an update of a form ended.
type UpdateResult int

const (
	// UpdateApplied means the editable fields were replaced.
	UpdateApplied UpdateResult = iota
	// UpdateNotFound means no form with the given id existed when the update ran.
	UpdateNotFound
	// UpdateConflict means the database aborted the update because of a concurrent transaction.
	UpdateConflict
	// UpdateFailed means the statement failed for any other reason.
	UpdateFailed
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateApplied:
		return "applied"
	case UpdateNotFound:
		return "not_found"
	case UpdateConflict:
		return "conflict"
	case UpdateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
