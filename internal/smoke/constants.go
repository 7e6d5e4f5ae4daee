package smoke

// Expected width of the displayed range: (floor+5) - (floor-10).
const rangeWidth = 15

// PercentageMultiplier converts ratios to percentages.
const PercentageMultiplier = 100

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Outcomes of one user's flow.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeFailed   = "failed"
	outcomeNoLogin  = "no_login"
	outcomeNoSignup = "no_signup"
)
