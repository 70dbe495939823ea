// Package rotation implements the password rotation protocol:
//
//	idle --RequestOTP--> otp_requested --Commit--> committing --ok--> idle
//	                                             committing --fail--> otp_requested
//
// All field checks run locally before any network call. The first failing
// check is surfaced on the notice board; the full list is kept in the state.
package rotation
