package auth

import (
	"fmt"
	"time"

	"github.com/go-gomail/gomail"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
)

func generateAndStoreOTP(userID, email, purpose string) error {
	otpMutex.Lock()
	defer otpMutex.Unlock()

	// Enforce resend cooldown
	if val, ok := otpStore.Load(userID); ok {
		entry := val.(OtpEntry)
		if time.Since(entry.GeneratedAt) < OtpResendCooldown {
			return fmt.Errorf("please wait %d seconds before requesting a new code",
				int(OtpResendCooldown.Seconds()-time.Since(entry.GeneratedAt).Seconds()))
		}
	}

	// Generate TOTP secret (unique per user per session)
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "GlucoDiary",
		AccountName: email,
		Period:      uint(OtpExpiryDuration.Seconds()),
		SecretSize:  32,
		Digits:      6,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	otpCode, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate OTP code: %w", err)
	}

	otpStore.Store(userID, OtpEntry{
		UserID:      userID,
		Email:       email,
		Secret:      key.Secret(),
		GeneratedAt: time.Now(),
		Attempts:    0,
		Purpose:     purpose,
	})

	if err := sendOTPEmail(email, otpCode); err != nil {
		// Remove from store if email fails
		otpStore.Delete(userID)
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	log.Info().Str("email", email).Str("purpose", purpose).Msg("OTP generated and sent")
	return nil
}

// sendOTPEmail sends the verification code via email using gomail
func sendOTPEmail(toEmail, otpCode string) error {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return fmt.Errorf("SMTP configuration missing")
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	body := fmt.Sprintf(`
		<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<h2>Welcome to GlucoDiary!</h2>
			<p>Use the following code to verify your email address:</p>
			<div style="background: #f4f4f4; padding: 15px; text-align: center; font-size: 24px; letter-spacing: 5px; font-weight: bold; margin: 20px 0;">
				%s
			</div>
			<p><strong>This code is valid for 5 minutes.</strong></p>
			<p>If you did not create an account, please ignore this email.</p>
			<hr>
			<p style="color: #666; font-size: 12px;">Automated email from GlucoDiary</p>
		</body>
		</html>
	`, otpCode)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "GlucoDiary Email Verification Code")
	m.SetBody("text/html", body)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.DialAndSend(m)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error().Err(err).Str("to", toEmail).Msg("Failed to send OTP email")
			return err
		}
		return nil
	case <-time.After(15 * time.Second):
		log.Error().Str("to", toEmail).Msg("Timeout sending OTP email")
		return fmt.Errorf("email sending timeout")
	}
}

// verifyOTPCode validates the OTP code
func verifyOTPCode(userID, otpCode string) (bool, error) {
	val, ok := otpStore.Load(userID)
	if !ok {
		return false, fmt.Errorf("no OTP found for this user")
	}

	entry := val.(OtpEntry)

	if time.Since(entry.GeneratedAt) > OtpExpiryDuration {
		otpStore.Delete(userID)
		return false, fmt.Errorf("OTP has expired")
	}

	if entry.Attempts >= MaxOtpAttempts {
		otpStore.Delete(userID)
		return false, fmt.Errorf("maximum verification attempts exceeded")
	}

	entry.Attempts++
	entry.LastAttempt = time.Now()
	otpStore.Store(userID, entry)

	valid := totp.Validate(otpCode, entry.Secret)
	if valid {
		otpStore.Delete(userID)
		return true, nil
	}

	return false, nil
}

// cleanupExpiredOTPs removes expired OTP entries (run periodically)
func cleanupExpiredOTPs() {
	otpStore.Range(func(key, value interface{}) bool {
		entry := value.(OtpEntry)
		if time.Since(entry.GeneratedAt) > OtpExpiryDuration {
			otpStore.Delete(key)
			log.Info().Str("user_id", entry.UserID).Msg("cleaned up expired OTP")
		}
		return true
	})
}

func startOTPCleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for range ticker.C {
			cleanupExpiredOTPs()
		}
	}()
}
