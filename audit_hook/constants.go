package audithook

// Action constants for audit events.
const (
	// Stream lifecycle actions
	ActionStreamCreated = "stream.created"
	ActionStreamStarted = "stream.started"
	ActionStreamPaused  = "stream.paused"
	ActionStreamStopped = "stream.stopped"

	// Balance actions
	ActionDeposit            = "funds.deposited"
	ActionWithdraw           = "funds.withdrawn"
	ActionRefund             = "funds.refunded"
	ActionAutoDepositToggled = "auto_deposit.toggled"

	// Transfer actions
	ActionTransferResolved = "transfer.resolved"
	ActionTransferFailed   = "transfer.failed"

	// Inbound actions
	ActionSenderRejected = "sender.rejected"

	// Cron actions
	ActionCronPass = "cron.pass"
)

// Resource constants for audit events.
const (
	ResourceStream   = "stream"
	ResourceTransfer = "transfer"
	ResourceSender   = "sender"
	ResourceCron     = "cron"
)

// Category constants for audit events.
const (
	CategoryLifecycle = "lifecycle"
	CategoryFunds     = "funds"
	CategoryPayout    = "payout"
	CategoryAccess    = "access"
	CategorySchedule  = "schedule"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
