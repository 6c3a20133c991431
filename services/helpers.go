package services

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteCodeAlphabet не содержит похожих символов (0/O, 1/I/L),
// чтобы коды можно было диктовать вслух.
const inviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

func generateInviteCode() (string, error) {
	bytes := make([]byte, inviteCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	var b strings.Builder
	for _, rb := range bytes {
		b.WriteByte(inviteCodeAlphabet[int(rb)%len(inviteCodeAlphabet)])
	}
	return b.String(), nil
}

// GetExtensionFromContentType возвращает расширение файла для изображений,
// загружаемых в объектное хранилище.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
