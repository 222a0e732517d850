package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	participationserrors "webinars/internal/participations/errors"
	"webinars/internal/participations/locker"
	"webinars/internal/participations/notification"
	"webinars/internal/participations/repository"
	"webinars/internal/participations/validator"
	"webinars/pkg/config"
	apperrors "webinars/pkg/errors"
	"webinars/pkg/model"
)

type ParticipationService interface {
	BookSeat(ctx context.Context, webinarID string, user *model.User) (*model.Participation, error)
	ListParticipants(ctx context.Context, webinarID string) ([]*model.Participation, error)
}

type participationService struct {
	webinars       repository.WebinarRepository
	users          repository.UserRepository
	participations repository.ParticipationRepository
	locker         locker.Locker
	notifier       notification.Notifier
	validator      *validator.ParticipationValidator
	cfg            *config.Config
	now            func() time.Time
}

func NewParticipationService(
	webinars repository.WebinarRepository,
	users repository.UserRepository,
	participations repository.ParticipationRepository,
	locker locker.Locker,
	notifier notification.Notifier,
	validator *validator.ParticipationValidator,
	cfg *config.Config,
) ParticipationService {
	return &participationService{
		webinars:       webinars,
		users:          users,
		participations: participations,
		locker:         locker,
		notifier:       notifier,
		validator:      validator,
		cfg:            cfg,
		now:            time.Now,
	}
}

// BookSeat admits user to the webinar if it exists, the user exists, the user
// holds no seat yet and a seat is left, in that order of precedence. The
// duplicate and capacity checks and the write run under the webinar's lock.
// Notifications go out after the lock is released and never affect the result.
func (s *participationService) BookSeat(ctx context.Context, webinarID string, user *model.User) (*model.Participation, error) {
	if err := s.validator.ValidateBooking(webinarID, user); err != nil {
		s.cfg.Log.Warn("Participation request validation failed", "webinar_id", webinarID, "error", err)
		return nil, InvalidInput(err)
	}

	webinar, err := s.webinars.FindByID(ctx, webinarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, participationserrors.WebinarNotFound(webinarID)
		}
		s.cfg.Log.Error("Failed to retrieve webinar", "webinar_id", webinarID, "error", err)
		return nil, storeError("Failed to retrieve webinar", err)
	}

	// No stored user can carry an unusable id.
	if err := s.validator.ValidateUserID(user.ID); err != nil {
		return nil, participationserrors.UserNotFound(user.ID)
	}

	storedUser, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, participationserrors.UserNotFound(user.ID)
		}
		s.cfg.Log.Error("Failed to retrieve user", "user_id", user.ID, "error", err)
		return nil, storeError("Failed to retrieve user", err)
	}

	participation, err := s.admit(ctx, webinar, storedUser)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Participation created successfully",
		"id", participation.ID,
		"webinar_id", webinar.ID,
		"user_id", storedUser.ID,
	)

	s.notifier.NotifyParticipation(ctx, webinar, storedUser)
	return participation, nil
}

func (s *participationService) admit(ctx context.Context, webinar *model.Webinar, user *model.User) (*model.Participation, error) {
	lockCtx, unlock, err := s.lock(ctx, webinar.ID)
	if err != nil {
		s.cfg.Log.Warn("Failed to acquire webinar lock", "webinar_id", webinar.ID, "error", err)
		return nil, lockError(err)
	}
	defer unlock()

	var participation *model.Participation
	err = s.inTransaction(lockCtx, webinar.ID, func(ctx context.Context) error {
		if leases, ok := s.locker.(locker.LeaseLocker); ok {
			if err := leases.Fence(ctx, webinar.ID); err != nil {
				return err
			}
		}

		existing, err := s.participations.FindByWebinarID(ctx, webinar.ID)
		if err != nil {
			return storeError("Failed to retrieve participations", err)
		}

		for _, p := range existing {
			if p.UserID == user.ID {
				return participationserrors.AlreadyParticipating(user.ID, webinar.ID)
			}
		}

		if webinar.Seats-len(existing) <= 0 {
			return participationserrors.NotEnoughSeats(webinar.ID)
		}

		p := &model.Participation{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			WebinarID: webinar.ID,
			CreatedAt: s.now().UTC(),
		}
		if err := s.save(ctx, p, webinar.Seats); err != nil {
			return err
		}
		participation = p
		return nil
	})
	if err != nil {
		return nil, s.admissionFailure(err, webinar.ID, user.ID)
	}
	return participation, nil
}

func (s *participationService) lock(ctx context.Context, webinarID string) (context.Context, locker.Unlock, error) {
	if leases, ok := s.locker.(locker.LeaseLocker); ok {
		return leases.Lease(ctx, webinarID)
	}
	unlock, err := s.locker.Lock(ctx, webinarID)
	return ctx, unlock, err
}

func (s *participationService) save(ctx context.Context, p *model.Participation, seats int) error {
	var err error
	if guard, ok := s.participations.(repository.CapacityGuard); ok {
		err = guard.SaveWithinCapacity(ctx, p, seats)
	} else {
		err = s.participations.Save(ctx, p)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateParticipation):
		return participationserrors.AlreadyParticipating(p.UserID, p.WebinarID)
	case errors.Is(err, repository.ErrCapacityExceeded):
		return participationserrors.NotEnoughSeats(p.WebinarID)
	default:
		return storeError("Failed to save participation", err)
	}
}

func (s *participationService) inTransaction(ctx context.Context, webinarID string, fn func(ctx context.Context) error) error {
	switch store := s.participations.(type) {
	case repository.LockingTransactional:
		return store.RunLocked(ctx, webinarID, fn)
	case repository.Transactional:
		return store.RunInTransaction(ctx, fn)
	default:
		return fn(ctx)
	}
}

// admissionFailure returns rejections as they are and turns anything else the
// transaction produced into an AppError.
func (s *participationService) admissionFailure(err error, webinarID, userID string) error {
	var admissionErr *participationserrors.AdmissionError
	if errors.As(err, &admissionErr) {
		s.cfg.Log.Info("Participation rejected",
			"webinar_id", webinarID,
			"user_id", userID,
			"reason", admissionErr.Kind.String(),
		)
		return admissionErr
	}

	s.cfg.Log.Error("Failed to create participation", "webinar_id", webinarID, "user_id", userID, "error", err)
	if errors.Is(err, locker.ErrLockTimeout) || errors.Is(err, locker.ErrLockLost) {
		return lockError(err)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return storeError("Failed to create participation", err)
}

func (s *participationService) ListParticipants(ctx context.Context, webinarID string) ([]*model.Participation, error) {
	if err := s.validator.ValidateWebinarID(webinarID); err != nil {
		return nil, InvalidInput(err)
	}

	if _, err := s.webinars.FindByID(ctx, webinarID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, participationserrors.WebinarNotFound(webinarID)
		}
		return nil, storeError("Failed to retrieve webinar", err)
	}

	participations, err := s.participations.FindByWebinarID(ctx, webinarID)
	if err != nil {
		s.cfg.Log.Error("Failed to list participations", "webinar_id", webinarID, "error", err)
		return nil, storeError("Failed to retrieve participations", err)
	}
	return participations, nil
}

// InvalidInput wraps a validation failure as INVALID_INPUT, listing field errors in details.
func InvalidInput(err error) *apperrors.AppError {
	appErr := apperrors.InvalidInput("Invalid participation request")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return appErr.WithDetails(map[string]any{"errors": verrs})
	}
	return appErr.WithDetails(map[string]any{"error": err.Error()})
}

func storeError(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Timeout(message, err)
	}
	return apperrors.Internal(message, err)
}

func lockError(err error) *apperrors.AppError {
	if errors.Is(err, locker.ErrLockLost) {
		return apperrors.Timeout("Webinar lock expired before the booking completed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, locker.ErrLockTimeout) {
		return apperrors.Timeout("Timed out waiting for webinar availability", err)
	}
	return apperrors.Internal("Failed to lock webinar", err)
}
