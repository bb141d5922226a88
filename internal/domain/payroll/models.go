package payroll

// PayFrequency says how an employee's pay_rate is interpreted: hourly
// employees are paid rate * hours worked, salaried employees receive the
// rate as the amount for the whole pay period.
type PayFrequency string

type Employee struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	HomeRegion   string       `json:"home_region"`
	PayRate      float64      `json:"pay_rate"`
	PayFrequency PayFrequency `json:"pay_frequency"`
}

// PayItem adjusts an employee's pay for the period. Positive amounts are
// earnings, negative amounts are deductions. An item described as "hours"
// (case-insensitive) on an hourly employee carries the hours worked.
type PayItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// PayPeriod is an inclusive date range in YYYY-MM-DD form. The engine
// echoes it back without validating it.
type PayPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Request struct {
	Employees []Employee           `json:"employees"`
	PayItems  map[string][]PayItem `json:"pay_items"`
	PayPeriod PayPeriod            `json:"pay_period"`
}

// EmployeeResult is one row of a pay run. Details is an open document;
// when a tax law was applied it carries at least tax_region and
// tax_version.
type EmployeeResult struct {
	Employee Employee       `json:"employee"`
	Gross    float64        `json:"gross"`
	Taxes    float64        `json:"taxes"`
	Net      float64        `json:"net"`
	Details  map[string]any `json:"details"`
}

type Result struct {
	Period  PayPeriod        `json:"period"`
	Results []EmployeeResult `json:"results"`
}
