package payroll

const (
	FrequencyHourly PayFrequency = "hourly"
	FrequencySalary PayFrequency = "salary"

	// RegionFederal is the reserved fallback region. A calculator is
	// always registered under it at startup.
	RegionFederal = "US-FED"

	// hoursDescription is the reserved pay-item description that carries
	// hours worked for hourly employees. Matched case-insensitively.
	hoursDescription = "hours"
)
