package errors

import "errors"

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// WrapDetails is Wrap with a payload clients can inspect, such as rejected fields.
func WrapDetails(code, message string, details any, err error) error {
	return &AppError{Code: code, Message: message, Details: details, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// DetailsOf returns the details of the outermost AppError carrying any.
func DetailsOf(err error) any {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return nil
		}
		if appErr.Details != nil {
			return appErr.Details
		}
		err = appErr.Err
	}
	return nil
}
