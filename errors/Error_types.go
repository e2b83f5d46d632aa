package errors

var (
	ErrUnknown         = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound        = New(ERR_NOT_FOUND, "not found")
	ErrProcessing      = New(ERR_PROCESSING, "error processing")
	ErrConfiguration   = New(ERR_CONFIGURATION, "configuration error")
	ErrInvalidState    = New(ERR_INVALID_STATE, "invalid state")
	ErrTxInvalid       = New(ERR_TX_INVALID, "tx invalid")
	ErrStorageError    = New(ERR_STORAGE_ERROR, "storage error")
	ErrError           = New(ERR_ERROR, "generic error")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewInvalidStateError(message string, params ...interface{}) error {
	return New(ERR_INVALID_STATE, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
