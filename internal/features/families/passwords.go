// Package families — passwords.go отвечает за хеширование паролей семей.
//
// Новые семьи получают Argon2id со случайной солью на запись.
// Для совместимости со старыми записями проверка также принимает
// устаревший формат sha256("salt_v1_" + пароль) — он остаётся только
// для миграции, создавать такие хеши больше нельзя.
package families

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	argonMemory      uint32 = 65536 // 64 MB
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// legacySalt — статическая соль исходной схемы. Только для проверки старых хешей.
const legacySalt = "salt_v1_"

// HashPassword хеширует пароль семьи в Argon2id.
// Формат: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonIterations, argonParallelism, encodedSalt, encodedHash), nil
}

// CheckPassword проверяет введённый пароль против сохранённого хеша.
// nil-хеш означает открытую семью — подходит любой ввод, включая пустой.
func CheckPassword(storedHash *string, password string) bool {
	if storedHash == nil || *storedHash == "" {
		return true
	}
	if strings.HasPrefix(*storedHash, "$argon2id$") {
		return verifyArgon2id(password, *storedHash)
	}
	// Устаревший формат: hex-дайджест sha256 со статической солью
	return verifyLegacy(password, *storedHash)
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
func verifyArgon2id(password, encodedHash string) bool {
	// Парсим хеш
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	// Извлекаем параметры
	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	// Декодируем соль
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	// Декодируем хеш
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	// Вычисляем хеш введённого пароля
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// verifyLegacy проверяет пароль по устаревшей схеме sha256("salt_v1_" + пароль).
func verifyLegacy(password, storedHash string) bool {
	sum := sha256.Sum256([]byte(legacySalt + password))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
