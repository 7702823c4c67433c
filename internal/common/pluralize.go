// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация и форматирование счётчиков.
package common

import (
	"fmt"
	"math"
)

// PluralizeTakeouts возвращает правильную форму слова «вынос» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "вынос" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "выноса" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "выносов" (0, 5-20, 25-30, 100, ...)
//
// Примеры:
//
//	PluralizeTakeouts(1)  → "вынос"
//	PluralizeTakeouts(3)  → "выноса"
//	PluralizeTakeouts(11) → "выносов"
//	PluralizeTakeouts(21) → "вынос"
func PluralizeTakeouts(n int) string {
	// Берём абсолютное значение для отрицательных чисел
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "вынос"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "выноса"
	}

	// Большое множественное: 0, 5-20, 25-30, 100, ...
	return "выносов"
}

// FormatTakeouts форматирует счётчик в читабельную строку.
// Пример: FormatTakeouts(5) → "5 выносов"
func FormatTakeouts(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeTakeouts(n))
}
