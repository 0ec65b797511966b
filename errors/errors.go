package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrInvalidDelay      = fmt.Errorf("invalid delay")
	ErrCallbackFailure   = fmt.Errorf("completion callback failed")
	ErrFetchCanceled     = fmt.Errorf("fetch canceled")
	ErrInvalidTransition = fmt.Errorf("invalid fetch state transition")
	ErrRecordNotFound    = fmt.Errorf("fetch record not found")
	ErrInvalidRequest    = fmt.Errorf("invalid fetch request")
)
