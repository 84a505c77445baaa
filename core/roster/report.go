package roster

type (
	// RowSuccess reports a committed row. Email is only populated for
	// student rows; the faculty upload has always reported without it.
	RowSuccess struct {
		ExternalID string `json:"id"`
		Name       string `json:"name"`
		Department string `json:"department"`
		Email      string `json:"email,omitempty"`
	}

	// RowFailure reports a rejected row. Identity fields are populated when
	// determinable; Location falls back to the row's email or file position.
	RowFailure struct {
		ExternalID string `json:"id,omitempty"`
		Name       string `json:"name,omitempty"`
		Email      string `json:"email,omitempty"`
		Department string `json:"department,omitempty"`
		Location   string `json:"location,omitempty"`
		Message    string `json:"message"`
	}

	// BatchReport is the settled outcome of a whole upload: every submitted
	// row that survived decoding lands in exactly one of the two lists.
	BatchReport struct {
		Successes []RowSuccess `json:"success"`
		Failures  []RowFailure `json:"error"`
	}
)

// rowOutcome is a single row's settled result; exactly one field is set.
type rowOutcome struct {
	success *RowSuccess
	failure *RowFailure
}

func succeeded(ident CommittedIdentity, withEmail bool) rowOutcome {
	s := &RowSuccess{
		ExternalID: ident.ExternalID,
		Name:       ident.Name,
		Department: ident.Department,
	}
	if withEmail {
		s.Email = ident.Email
	}
	return rowOutcome{success: s}
}

func failed(f RowFailure) rowOutcome {
	return rowOutcome{failure: &f}
}
