package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"theater-booking/types"
	"time"

	userModel "theater-booking/models/user"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jinzhu/now"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	return []byte(secret), nil
}

// IssueToken signs a JWT for the given staff user. Expiry defaults to 12
// hours and can be overridden via JWT_EXPIRY_HOURS.
func IssueToken(u *userModel.User) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	expiry := 12 * time.Hour
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		if hours, err := time.ParseDuration(v + "h"); err == nil && hours > 0 {
			expiry = hours
		}
	}

	claims := jwt.MapClaims{
		"Uid":      u.Uuid,
		"Username": u.Username,
		"Role":     u.Role,
		"exp":      time.Now().Add(expiry).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ExtractUUIDFromToken pulls the user uuid out of the request's bearer token.
func ExtractUUIDFromToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	tokenString := ""

	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return "", fmt.Errorf("invalid token format")
		}
		tokenString = tokenParts[1]
	} else if cookie := c.Cookies("access_token"); cookie != "" {
		tokenString = cookie
	}

	if tokenString == "" {
		return "", fmt.Errorf("authorization header missing")
	}

	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		uid, ok := claims["Uid"].(string)
		if !ok {
			return "", fmt.Errorf("uuid not found in token")
		}
		return uid, nil
	}

	return "", fmt.Errorf("invalid token")
}

// GetUserByUUID retrieves a staff user by their UUID
func GetUserByUUID(db *gorm.DB, uuid string) (*userModel.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var u userModel.User
	if err := db.Where("uuid = ?", uuid).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &u, nil
}

// CalculateAge returns a patient's age in years, months and days.
func CalculateAge(dob time.Time) (int, int, int) {
	currentTime := time.Now()

	years := currentTime.Year() - dob.Year()
	months := int(currentTime.Month()) - int(dob.Month())
	days := currentTime.Day() - dob.Day()

	if months < 0 {
		years--
		months += 12
	}

	if days < 0 {
		// Borrow the length of the previous month
		previousMonth := now.With(currentTime).BeginningOfMonth().AddDate(0, 0, -1)
		days += previousMonth.Day()
		months--
	}

	return years, months, days
}

// DayBounds returns the start and end of the calendar day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	n := now.With(t)
	return n.BeginningOfDay(), n.EndOfDay()
}

// sanitizeRequestBody strips file content and other large payloads from the
// request body before it gets persisted as a log row.
func sanitizeRequestBody(c *fiber.Ctx) string {
	contentType := c.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		formData := make(map[string]interface{})

		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					formData[key] = values[0]
				}
			}

			for key, files := range form.File {
				fileInfo := make([]map[string]interface{}, len(files))
				for i, file := range files {
					fileInfo[i] = map[string]interface{}{
						"filename": file.Filename,
						"size":     file.Size,
						"content":  "[FILE_CONTENT_REMOVED]",
					}
				}
				formData[key] = fileInfo
			}
		}

		if jsonBytes, err := json.Marshal(formData); err == nil {
			return string(jsonBytes)
		}
		return "[MULTIPART_FORM_DATA]"
	}

	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	return body
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// CreateSanitizedLogEntry creates a deep copied and sanitized log entry for
// the async request logger.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeRequestBody(c)
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
