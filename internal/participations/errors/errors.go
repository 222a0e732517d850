package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "webinars/pkg/errors"
)

var (
	ErrWebinarNotFound = stderrors.New("webinar not found")

	ErrUserNotFound = stderrors.New("user not found")

	ErrAlreadyParticipating = stderrors.New("user already participates in webinar")

	ErrNotEnoughSeats = stderrors.New("webinar has no seats left")
)

// Kind discriminates the four terminal outcomes of a rejected admission.
type Kind int

const (
	KindWebinarNotFound Kind = iota + 1
	KindUserNotFound
	KindAlreadyParticipating
	KindNotEnoughSeats
)

func (k Kind) String() string {
	switch k {
	case KindWebinarNotFound:
		return "webinar_not_found"
	case KindUserNotFound:
		return "user_not_found"
	case KindAlreadyParticipating:
		return "already_participating"
	case KindNotEnoughSeats:
		return "not_enough_seats"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindWebinarNotFound:
		return ErrWebinarNotFound
	case KindUserNotFound:
		return ErrUserNotFound
	case KindAlreadyParticipating:
		return ErrAlreadyParticipating
	case KindNotEnoughSeats:
		return ErrNotEnoughSeats
	default:
		return nil
	}
}

type AdmissionError struct {
	Kind      Kind
	WebinarID string
	UserID    string
}

func (e *AdmissionError) Error() string {
	switch e.Kind {
	case KindWebinarNotFound:
		return fmt.Sprintf("webinar %s not found", e.WebinarID)
	case KindUserNotFound:
		return fmt.Sprintf("user with ID %s not found", e.UserID)
	case KindAlreadyParticipating:
		return fmt.Sprintf("user %s already participates in webinar %s", e.UserID, e.WebinarID)
	case KindNotEnoughSeats:
		return fmt.Sprintf("webinar %s has no seats left", e.WebinarID)
	default:
		return "admission rejected"
	}
}

// Is makes errors.Is(err, ErrNotEnoughSeats) and friends work on an AdmissionError.
func (e *AdmissionError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

func WebinarNotFound(webinarID string) *AdmissionError {
	return &AdmissionError{Kind: KindWebinarNotFound, WebinarID: webinarID}
}

func UserNotFound(userID string) *AdmissionError {
	return &AdmissionError{Kind: KindUserNotFound, UserID: userID}
}

func AlreadyParticipating(userID, webinarID string) *AdmissionError {
	return &AdmissionError{Kind: KindAlreadyParticipating, WebinarID: webinarID, UserID: userID}
}

func NotEnoughSeats(webinarID string) *AdmissionError {
	return &AdmissionError{Kind: KindNotEnoughSeats, WebinarID: webinarID}
}

// KindOf reports the admission kind carried by err, or 0 if err is not an admission rejection.
func KindOf(err error) Kind {
	var admissionErr *AdmissionError
	if stderrors.As(err, &admissionErr) {
		return admissionErr.Kind
	}
	return 0
}

// ToAppError maps an admission rejection to its HTTP-facing AppError. Any other error
// is passed through apperrors.AsAppError.
func ToAppError(err error) *apperrors.AppError {
	var admissionErr *AdmissionError
	if !stderrors.As(err, &admissionErr) {
		return apperrors.AsAppError(err)
	}

	details := map[string]any{}
	if admissionErr.WebinarID != "" {
		details["webinar_id"] = admissionErr.WebinarID
	}
	if admissionErr.UserID != "" {
		details["user_id"] = admissionErr.UserID
	}

	var appErr *apperrors.AppError
	switch admissionErr.Kind {
	case KindWebinarNotFound:
		appErr = apperrors.New(apperrors.CodeWebinarNotFound, "Webinar not found", http.StatusNotFound)
	case KindUserNotFound:
		appErr = apperrors.New(apperrors.CodeUserNotFound, "User not found", http.StatusNotFound)
	case KindAlreadyParticipating:
		appErr = apperrors.New(apperrors.CodeAlreadyParticipating, "User already participates in this webinar", http.StatusConflict)
	case KindNotEnoughSeats:
		appErr = apperrors.New(apperrors.CodeNotEnoughSeats, "Webinar has no seats left", http.StatusConflict)
	default:
		return apperrors.Internal("Unknown admission outcome", err)
	}
	appErr.Err = err
	return appErr.WithDetails(details)
}
