package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"loops-assistant/internal/domain"
)

// ContactRecorder stores a captured contact.
type ContactRecorder interface {
	RecordContact(ctx context.Context, rec domain.ContactRecord) error
}

type ContactService struct {
	recorder ContactRecorder
}

func NewContactService(r ContactRecorder) (*ContactService, error) {
	if r == nil {
		return nil, errors.New("usecase: contact recorder must not be nil")
	}
	return &ContactService{recorder: r}, nil
}

// Capture validates and records rec. Name and email are required; message and
// source are optional. It satisfies ContactForwarder, so the chat flow can
// hand details over in-process.
func (s *ContactService) Capture(ctx context.Context, rec domain.ContactRecord) error {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Email = strings.TrimSpace(rec.Email)
	if rec.Name == "" || rec.Email == "" {
		return newError(ErrorInvalidInput, "name_and_email_required", nil)
	}
	rec.Message = strings.TrimSpace(rec.Message)
	rec.Source = strings.TrimSpace(rec.Source)
	rec.CapturedAt = now().UTC()

	if err := s.recorder.RecordContact(ctx, rec); err != nil {
		return newError(ErrorInternal, "contact_record_error", err)
	}
	return nil
}

var now = time.Now
