package payroll

import "errors"

var (
	ErrMissingLawRegistry        = errors.New("payroll engine has no tax law registry")
	ErrMissingCalculatorRegistry = errors.New("payroll engine has no calculator registry")
)
