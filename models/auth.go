// models/auth.go

package models

import (
	"time"
)

// AuthRecord is the single persisted document per phone number in the
// "auth" collection. OTPCode and OTPExpires are transient: both are present
// while a challenge is outstanding and both are removed once it is consumed.
type AuthRecord struct {
	Name       string     `json:"name" bson:"name"`
	Phone      string     `json:"phone" bson:"phone"`
	OTPCode    string     `json:"otp_code,omitempty" bson:"otp_code,omitempty"`
	OTPExpires *time.Time `json:"otp_expires,omitempty" bson:"otp_expires,omitempty"`
	Verified   bool       `json:"verified" bson:"verified"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
}

type StartOTPRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=80"`
	Phone string `json:"phone" validate:"required,min=8,max=16"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=16"`
	OTP   string `json:"otp" validate:"required,min=4,max=6"`
}

// StartOTPResponse echoes the generated code back to the caller. Demo
// behavior: there is no delivery channel wired by default, so the client
// needs the code to test the flow.
type StartOTPResponse struct {
	OK           bool   `json:"ok"`
	DemoOTP      string `json:"demo_otp"`
	ExpiresInSec int    `json:"expires_in_sec"`
}

type VerifyOTPResponse struct {
	OK       bool   `json:"ok"`
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
