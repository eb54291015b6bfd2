package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidDeployment    ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106
	ErrCodeInvalidInterval      ErrorCode = 107

	// Data errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeNoDataFound  ErrorCode = 201
	ErrCodeQueryFailed  ErrorCode = 202

	// Strategy errors (300-399)
	ErrCodeStrategyNotFound      ErrorCode = 300
	ErrCodeStrategyAlreadyExists ErrorCode = 301
	ErrCodeStrategyConfigError   ErrorCode = 302
	ErrCodeStrategyEvaluation    ErrorCode = 303
	ErrCodeVersionMismatch       ErrorCode = 304

	// Brokerage errors (400-499)
	ErrCodeAuthenticationFailed ErrorCode = 400
	ErrCodeRateLimited          ErrorCode = 401
	ErrCodeMaxRetriesExceeded   ErrorCode = 402
	ErrCodeBrokerageRequest     ErrorCode = 403
	ErrCodeOrderRejected        ErrorCode = 404
	ErrCodeAccountNotFound      ErrorCode = 405

	// Journal errors (500-599)
	ErrCodeJournalInitFailed  ErrorCode = 500
	ErrCodeJournalWriteFailed ErrorCode = 501
	ErrCodeJournalQueryFailed ErrorCode = 502
	ErrCodePositionNotFound   ErrorCode = 503
	ErrCodeDeploymentNotFound ErrorCode = 504
	ErrCodeOrderNotFound      ErrorCode = 505

	// Deployment errors (600-699)
	ErrCodeExecutionFailed      ErrorCode = 600
	ErrCodeDeploymentRunning    ErrorCode = 601
	ErrCodeDeploymentNotRunning ErrorCode = 602
	ErrCodeEvaluationFailed     ErrorCode = 603
	ErrCodeUnsupportedVenue     ErrorCode = 604
	ErrCodeUnsupportedMode      ErrorCode = 605

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeInvalidTimespan       ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703
)
