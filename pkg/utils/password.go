package utils

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes is the bcrypt input limit. It counts bytes, so a
// multibyte password reaches it with fewer than 72 characters.
const MaxPasswordBytes = 72

// HashCost is lowered by tests; bcrypt.MinCost keeps them fast.
var HashCost = bcrypt.DefaultCost

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
