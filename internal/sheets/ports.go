package sheets

import "context"

// SalaryReader reads salary history from an external spreadsheet and
// returns it in the decoded-JSON shape accepted by core.Validate.
type SalaryReader interface {
	ReadSalary(ctx context.Context) (any, error)
}
