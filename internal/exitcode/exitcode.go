package exitcode

const (
	Success        = 0
	UsageError     = 1
	ConfigError    = 2
	ClassifyError  = 3
	MissingInput   = 4
	TransformError = 5
	IOError        = 6
)
