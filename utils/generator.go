package utils

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"gorm.io/gorm"
)

const usernameSuffixLength = 4
const suffixBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateUniqueUsername derives a handle from the user's name and appends a
// random suffix until no other user holds it.
func GenerateUniqueUsername(tx *gorm.DB, firstName, lastName string) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := UsernameBase(firstName, lastName)

	for {
		b := make([]byte, usernameSuffixLength)
		for i := range b {
			b[i] = suffixBytes[seededRand.Intn(len(suffixBytes))]
		}
		username := base + "_" + string(b)

		var user models.User
		err := tx.Where("username = ?", username).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return username, nil
			}
			return "", err
		}
	}
}

// UsernameBase keeps the lowercase letters and digits of both names.
func UsernameBase(firstName, lastName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(firstName + lastName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
