package testutil

import (
	"sync"
	"time"
)

// RecordingNotifier captures outbound notifications for assertions instead of
// sending email. Safe for concurrent use: services send fire-and-forget from
// goroutines.
type RecordingNotifier struct {
	mu          sync.Mutex
	resets      []ResetNotification
	loginAlerts []string
}

// ResetNotification is one captured password-reset email.
type ResetNotification struct {
	To       string
	ResetURL string
}

func (r *RecordingNotifier) SendPasswordReset(toEmail, resetURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, ResetNotification{To: toEmail, ResetURL: resetURL})
	return nil
}

func (r *RecordingNotifier) SendLoginAlert(toEmail string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginAlerts = append(r.loginAlerts, toEmail)
	return nil
}

// Resets returns a copy of the captured password-reset notifications.
func (r *RecordingNotifier) Resets() []ResetNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResetNotification, len(r.resets))
	copy(out, r.resets)
	return out
}

// LoginAlerts returns a copy of the captured login-alert recipients.
func (r *RecordingNotifier) LoginAlerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.loginAlerts))
	copy(out, r.loginAlerts)
	return out
}
