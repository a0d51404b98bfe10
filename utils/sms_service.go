package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SMSService handles OTP delivery through a bulk-SMS gateway. The gateway is
// configured entirely from the environment; when unconfigured, dispatch is
// skipped and the flow falls back to the demo response-only behavior.
type SMSService struct {
	Username string
	Password string
	SenderID string
	APIPath  string
	Client   *http.Client
}

// SMSResponse represents the response from the SMS gateway
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService creates a new SMS service instance from the environment
func NewSMSService() *SMSService {
	return &SMSService{
		Username: os.Getenv("SMS_USERNAME"),
		Password: os.Getenv("SMS_PASSWORD"),
		SenderID: os.Getenv("SMS_SENDER_ID"),
		APIPath:  os.Getenv("SMS_API_URL"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether the gateway is configured
func (s *SMSService) Enabled() bool {
	return s.APIPath != "" && s.Username != ""
}

// SendOTP sends an OTP via the configured SMS gateway
func (s *SMSService) SendOTP(phoneNumber, otp string) error {
	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phoneNumber)
	params.Set("message", fmt.Sprintf("Your Examsaathi verification code is: %s. This code will expire in 5 minutes.", otp))
	params.Set("template", "otp")
	params.Set("variables", otp)

	fullURL := fmt.Sprintf("%s?%s", s.APIPath, params.Encode())

	req, err := http.NewRequest("POST", fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "Examsaathi-OTP-Service/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// Some gateways answer with plain text on success
		responseStr := strings.ToLower(strings.TrimSpace(string(body)))
		if strings.Contains(responseStr, "success") || strings.Contains(responseStr, "sent") {
			return nil
		}
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if smsResp.Status == "success" || smsResp.Status == "sent" {
		return nil
	}

	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}

// SendOTPViaSMS sends a 6-digit OTP via SMS when a gateway is configured.
// Without one this is a no-op, keeping the flow usable in demo mode.
func SendOTPViaSMS(phone string, otp string) error {
	smsService := NewSMSService()
	if !smsService.Enabled() {
		return nil
	}

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	return smsService.SendOTP(phone, otp)
}
