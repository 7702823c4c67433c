package families

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestHashPasswordArgon2Format(t *testing.T) {
	hash, err := HashPassword("секрет")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("неожиданный формат хеша: %q", hash)
	}

	// Разные вызовы дают разные хеши — соль случайная на запись
	other, err := HashPassword("секрет")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == other {
		t.Fatal("два хеша одного пароля совпали — соль не случайная")
	}
}

func TestCheckPasswordArgon2(t *testing.T) {
	hash, err := HashPassword("секрет")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword(&hash, "секрет") {
		t.Error("верный пароль не принят")
	}
	if CheckPassword(&hash, "не тот") {
		t.Error("неверный пароль принят")
	}
	if CheckPassword(&hash, "") {
		t.Error("пустой пароль принят при установленном хеше")
	}
}

func TestCheckPasswordOpenFamily(t *testing.T) {
	// nil-хеш — открытая семья, подходит любой ввод
	if !CheckPassword(nil, "") {
		t.Error("открытая семья отклонила пустой пароль")
	}
	if !CheckPassword(nil, "что угодно") {
		t.Error("открытая семья отклонила непустой пароль")
	}

	empty := ""
	if !CheckPassword(&empty, "x") {
		t.Error("пустой хеш должен означать открытую семью")
	}
}

func TestCheckPasswordLegacy(t *testing.T) {
	// Хеш старой схемы: sha256("salt_v1_" + пароль) в hex
	sum := sha256.Sum256([]byte("salt_v1_" + "x"))
	legacy := hex.EncodeToString(sum[:])

	if !CheckPassword(&legacy, "x") {
		t.Error("верный пароль не принят по устаревшей схеме")
	}
	if CheckPassword(&legacy, "y") {
		t.Error("неверный пароль принят по устаревшей схеме")
	}
}
