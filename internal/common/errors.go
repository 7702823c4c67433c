// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки семейного реестра
var (
	// ErrFamilyExists — семья с таким названием уже существует
	ErrFamilyExists = errors.New("семья с таким названием уже существует")
	// ErrFamilyNotFound — семья не найдена
	ErrFamilyNotFound = errors.New("семья не найдена")
	// ErrWrongPassword — неверный пароль семьи
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrNotInFamily — пользователь не состоит ни в одной семье
	ErrNotInFamily = errors.New("вы не состоите в семье")
	// ErrMemberNotFound — участник не найден в семье
	ErrMemberNotFound = errors.New("участник не найден")
)

// Ошибки админ-действий
var (
	// ErrNotAdmin — действие доступно только администратору семьи
	ErrNotAdmin = errors.New("только админ может это сделать")
	// ErrInvalidCount — ожидалось целое число >= 0
	ErrInvalidCount = errors.New("нужно целое число не меньше нуля")
)
