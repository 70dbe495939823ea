package rotation

import (
	"github.com/dmitrijs2005/sessionkeeper/internal/client/strength"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseOTPRequested Phase = "otp_requested"
	PhaseCommitting   Phase = "committing"
)

// State is the form and protocol state of one rotation. OTP is only
// meaningful outside PhaseIdle.
type State struct {
	Phase           Phase
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	OTP             string
	Errors          []string

	// busy flags; never both true
	RequestingOTP bool
	Committing    bool

	Strength strength.Result
}

func (s State) clone() State {
	c := s
	c.Errors = append([]string(nil), s.Errors...)
	c.Strength.Suggestions = append([]string(nil), s.Strength.Suggestions...)
	return c
}

// Policy holds the local gates applied before any network call.
type Policy struct {
	MinCurrentPasswordLen int
	MinStrengthScore      int
	OTPLength             int
}

func DefaultPolicy() Policy {
	return Policy{
		MinCurrentPasswordLen: 8,
		MinStrengthScore:      3,
		OTPLength:             common.OTPLength,
	}
}
