// Package profile holds the local session record created when the user
// accepts the disclaimer.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindharmony/mindharmony/internal/store"
)

// AdminNickname unlocks the admin dashboard.
const AdminNickname = "admin"

var (
	ErrNicknameRequired = errors.New("nickname is required")
	ErrTermsNotAccepted = errors.New("terms must be accepted")
)

// Profile is the session record. It never carries answers.
type Profile struct {
	Nickname      string    `json:"nickname"`
	StudentID     string    `json:"studentId,omitempty"`
	AgreedToTerms bool      `json:"agreedToTerms"`
	IsAdmin       bool      `json:"isAdmin"`
	CreatedAt     time.Time `json:"-"`
}

// New validates consent input and builds a profile. The student id is
// optional.
func New(nickname, studentID string, agreed bool) (*Profile, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if !agreed {
		return nil, ErrTermsNotAccepted
	}
	return &Profile{
		Nickname:      nickname,
		StudentID:     strings.TrimSpace(studentID),
		AgreedToTerms: true,
		IsAdmin:       IsAdminNickname(nickname),
		CreatedAt:     time.Now(),
	}, nil
}

// IsAdminNickname reports whether nickname grants the admin role.
func IsAdminNickname(nickname string) bool {
	return strings.EqualFold(strings.TrimSpace(nickname), AdminNickname)
}

// Service persists the profile in the local store.
type Service struct {
	repo store.ProfileRepo
}

func NewService(repo store.ProfileRepo) *Service {
	return &Service{repo: repo}
}

// Save replaces the stored profile.
func (s *Service) Save(ctx context.Context, p *Profile) error {
	if p == nil {
		return errors.New("save profile: nil profile")
	}
	err := s.repo.Save(ctx, store.ProfileRecord{
		Nickname:      p.Nickname,
		StudentID:     p.StudentID,
		AgreedToTerms: p.AgreedToTerms,
		IsAdmin:       p.IsAdmin,
		CreatedAt:     p.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Load returns the stored profile, or nil if the user has not consented yet.
// A stored row without consent is treated as absent.
func (s *Service) Load(ctx context.Context) (*Profile, error) {
	rec, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if rec == nil || !rec.AgreedToTerms || strings.TrimSpace(rec.Nickname) == "" {
		return nil, nil
	}
	return &Profile{
		Nickname:      rec.Nickname,
		StudentID:     rec.StudentID,
		AgreedToTerms: rec.AgreedToTerms,
		IsAdmin:       IsAdminNickname(rec.Nickname),
		CreatedAt:     rec.CreatedAt,
	}, nil
}

// Logout clears the stored profile.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
