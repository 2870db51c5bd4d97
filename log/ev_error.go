package log

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorEvent struct {
	Error   error  `json:"error"`
	Message string `json:"message"`

	*zerolog.Event `json:"-"`
}

func NewError(logger *zerolog.Logger) *ErrorEvent {
	return &ErrorEvent{
		Event: logger.Error(),
	}
}

func NewErrorFull(logger *zerolog.Logger, err error, msg string) *ErrorEvent {
	return &ErrorEvent{
		Error:   err,
		Message: msg,
		Event:   logger.Error(),
	}
}

var _ MarshalableEvent = (*ErrorEvent)(nil)

func Error(logger *zerolog.Logger, err error, msg string) {
	NewErrorFull(logger, err, msg).Send()
}

func ErrorF(logger *zerolog.Logger, err error, msgF string, v ...interface{}) {
	NewErrorFull(logger, err, fmt.Sprintf(msgF, v...)).Send()
}

func (err *ErrorEvent) Send() {
	err.MarshalEvent(err.Event)
}

func (err *ErrorEvent) Err(setError error) *ErrorEvent {
	err.Error = setError
	return err
}

func (err *ErrorEvent) Msgf(f string, v ...interface{}) {
	err.Message = fmt.Sprintf(f, v...)
	err.Send()
}

func (err *ErrorEvent) MarshalEvent(ev *zerolog.Event) {
	ev.Err(err.Error).Msg(err.Message)
}
