package sharelinks

import (
	"errors"
	"math/rand"
	"time"
)

const (
	tokenChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength = 22
)

type TokenAvailabilityChecker interface {
	ExistsByToken(token string) (bool, error)
}

func init() {
	rand.Seed(time.Now().UnixNano())
}

// GenerateToken produces a random token with collision retry.
func GenerateToken(checker TokenAvailabilityChecker) (string, error) {
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		token := generateRandomToken(tokenLength)

		exists, err := checker.ExistsByToken(token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}

	// If collisions persist, increase length
	token := generateRandomToken(tokenLength + 2)
	exists, err := checker.ExistsByToken(token)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.New("failed to generate unique share token")
	}

	return token, nil
}

func generateRandomToken(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = tokenChars[rand.Intn(len(tokenChars))]
	}
	return string(b)
}
