package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"boardly/config"
	"boardly/models"
)

const (
	VerifyCodeLength = 6
	VerifyCodeExpiry = 15 * time.Minute
)

// GenerateVerifyCode returns a numeric email verification code
func GenerateVerifyCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, VerifyCodeLength)

	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}

	return string(code), nil
}

// GenerateSecureToken returns a random hex token for invitation links
func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

// SaveVerifyCode stores a fresh verification code on the user
func SaveVerifyCode(userID uint, code string) error {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return err
	}

	user.VerifyCode = code
	user.VerifyCodeExpiresAt = time.Now().Add(VerifyCodeExpiry)

	return config.DB.Save(&user).Error
}

// ConsumeVerifyCode marks the user verified when the code matches and
// has not expired
func ConsumeVerifyCode(userID uint, code string) (bool, error) {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return false, err
	}

	if user.VerifyCode == code && time.Now().Before(user.VerifyCodeExpiresAt) {
		user.VerifyCode = ""
		user.EmailVerified = true
		if err := config.DB.Save(&user).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}
