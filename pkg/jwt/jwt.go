package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por el middleware RBAC.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// ErrEmptySecret se devuelve si no hay secreto configurado.
var ErrEmptySecret = errors.New("jwt: secret vacío")

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// StoreID define el alcance de tienda de todas las operaciones del caller.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	Role    string `json:"role"` // "admin" | "operator"
}

// Generate genera un token JWT firmado HS256 con userID, storeID y role.
func Generate(secret, userID, storeID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		StoreID: storeID,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.UserID == "" || claims.StoreID == "" {
		return nil, fmt.Errorf("claims incompletos: user_id y store_id son obligatorios")
	}
	return claims, nil
}
