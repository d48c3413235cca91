package service

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func Validation(msg string) error {
	return &ValidationError{msg: msg}
}
