package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

type otpRepo struct{ s *Store }

func cloneOTP(o *repository.OTP) *repository.OTP {
	cp := *o
	if o.ConsumedAt != nil {
		at := *o.ConsumedAt
		cp.ConsumedAt = &at
	}
	return &cp
}

func (r *otpRepo) Create(ctx context.Context, in repository.CreateOTPInput) (*repository.OTP, error) {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.s.now()
	}
	o := &repository.OTP{
		ID:         uuid.NewString(),
		Identifier: in.Identifier,
		Type:       in.Type,
		CodeHash:   in.CodeHash,
		ExpiresAt:  in.ExpiresAt,
		CreatedAt:  createdAt,
	}
	r.s.mu.Lock()
	r.s.otps = append(r.s.otps, o)
	r.s.mu.Unlock()
	return cloneOTP(o), nil
}

// FindLatest recorre de atrás hacia adelante; ante empate de CreatedAt gana el último insertado.
func (r *otpRepo) FindLatest(ctx context.Context, identifier string, otpType types.OTPType) (*repository.OTP, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *repository.OTP
	for i := len(r.s.otps) - 1; i >= 0; i-- {
		o := r.s.otps[i]
		if o.Identifier != identifier || o.Type != otpType {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return cloneOTP(latest), nil
}

func (r *otpRepo) MarkConsumed(ctx context.Context, otpID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.otps {
		if o.ID != otpID {
			continue
		}
		if o.ConsumedAt != nil {
			return repository.ErrNotFound
		}
		o.ConsumedAt = &at
		return nil
	}
	return repository.ErrNotFound
}

func (r *otpRepo) RecordAttempt(ctx context.Context, otpID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.otps {
		if o.ID != otpID {
			continue
		}
		if o.ConsumedAt != nil {
			return 0, repository.ErrNotFound
		}
		o.Attempts++
		return o.Attempts, nil
	}
	return 0, repository.ErrNotFound
}

func (r *otpRepo) Delete(ctx context.Context, otpID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, o := range r.s.otps {
		if o.ID == otpID {
			r.s.otps = append(r.s.otps[:i], r.s.otps[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}
