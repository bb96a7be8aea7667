package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "lexicards"

// CreateToken mints a signed bearer token for the given user.
func CreateToken(secretKey []byte, dbid int64, username string, admin bool, expiry time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(dbid, 10),
		"usn": username,
		"adm": admin,
		"iss": Issuer,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	})
	return token.SignedString(secretKey)
}

// ParseToken validates a bearer token and extracts the authenticated user.
func ParseToken(secretKey []byte, userToken string) (*AuthedUser, error) {
	token, err := jwt.Parse(userToken, func(token *jwt.Token) (interface{}, error) {
		// Ensure the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, errors.New("could not parse token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("could not parse token claims")
	}

	uidStr, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("could not parse uid claim")
	}
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		return nil, errors.New("could not parse uid as an integer")
	}

	iss, ok := claims["iss"].(string)
	if !ok || iss != Issuer {
		return nil, errors.New("unexpected iss claim")
	}

	usn, ok := claims["usn"].(string)
	if !ok || usn == "" {
		return nil, errors.New("unexpected usn claim")
	}

	adm, ok := claims["adm"].(bool)
	if !ok {
		return nil, errors.New("unexpected adm claim")
	}

	return &AuthedUser{DBID: uid, Username: usn, Admin: adm}, nil
}
