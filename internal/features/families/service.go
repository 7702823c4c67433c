// Package families — service.go содержит бизнес-логику семейного реестра.
// Сервис координирует создание и вступление в семьи, учёт выносов мусора
// и админ-действия. Каждое админ-действие заново проверяет права вызывающего:
// разжалованный админ теряет доступ немедленно, а не при следующем открытии панели.
package families

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/common"
)

// Service управляет семьями и участниками.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис семейного реестра.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateFamily создаёт семью и назначает создателя админом.
// Пустой пароль означает открытую семью (вступление без пароля).
func (s *Service) CreateFamily(ctx context.Context, name, password string, creatorID int64, creatorName string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("название семьи не может быть пустым")
	}

	var passwordHash *string
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return 0, fmt.Errorf("ошибка хеширования пароля: %w", err)
		}
		passwordHash = &hash
	}

	familyID, err := s.repo.CreateFamily(ctx, name, passwordHash, creatorID, creatorName)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"family_id": familyID,
		"name":      name,
		"creator":   creatorID,
	}).Info("Семья создана")

	return familyID, nil
}

// JoinFamily добавляет пользователя в семью по названию и паролю.
// Несуществующая семья — common.ErrFamilyNotFound, неверный пароль —
// common.ErrWrongPassword. Повторное вступление проходит без ошибки
// и не создаёт дубликатов.
func (s *Service) JoinFamily(ctx context.Context, name, password string, userID int64, username string) error {
	family, err := s.repo.GetFamilyByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}

	if !CheckPassword(family.PasswordHash, password) {
		return common.ErrWrongPassword
	}

	if err := s.repo.AddMember(ctx, family.ID, userID, username); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"family_id": family.ID,
		"user_id":   userID,
	}).Info("Пользователь вступил в семью")

	return nil
}

// FamilyForUser возвращает семью пользователя (самое старое членство).
func (s *Service) FamilyForUser(ctx context.Context, userID int64) (*Family, error) {
	return s.repo.GetFamilyForUser(ctx, userID)
}

// RecordTrashOut отмечает вынос мусора и возвращает семью, в которой он учтён.
// Счётчик увеличивается только в активной семье пользователя.
func (s *Service) RecordTrashOut(ctx context.Context, userID int64) (*Family, error) {
	family, err := s.repo.GetFamilyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementCount(ctx, family.ID, userID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"family_id": family.ID,
		"user_id":   userID,
	}).Info("Вынос мусора отмечен")

	return family, nil
}

// Stats возвращает участников семьи по убыванию счётчика.
func (s *Service) Stats(ctx context.Context, familyID int64) ([]*Member, error) {
	return s.repo.GetStats(ctx, familyID)
}

// Members возвращает участников семьи по алфавиту.
func (s *Service) Members(ctx context.Context, familyID int64) ([]*Member, error) {
	return s.repo.GetMembers(ctx, familyID)
}

// Member возвращает одного участника семьи.
func (s *Service) Member(ctx context.Context, familyID, userID int64) (*Member, error) {
	return s.repo.GetMember(ctx, familyID, userID)
}

// LeastContributor возвращает участника с наименьшим числом выносов.
func (s *Service) LeastContributor(ctx context.Context, familyID int64) (*Member, error) {
	return s.repo.GetLeastMember(ctx, familyID)
}

// ListFamilies возвращает все семьи (для планировщика).
func (s *Service) ListFamilies(ctx context.Context) ([]*Family, error) {
	return s.repo.ListFamilies(ctx)
}

// RequireAdmin проверяет, что пользователь состоит в семье familyID и является её админом.
// Возвращает common.ErrNotInFamily либо common.ErrNotAdmin.
func (s *Service) RequireAdmin(ctx context.Context, familyID, userID int64) error {
	family, err := s.repo.GetFamilyForUser(ctx, userID)
	if err != nil {
		return err
	}
	if family.ID != familyID {
		return common.ErrNotInFamily
	}
	isAdmin, err := s.repo.IsAdmin(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return common.ErrNotAdmin
	}
	return nil
}

// SetCount выставляет счётчик участника. Только для админа семьи.
func (s *Service) SetCount(ctx context.Context, callerID, familyID, targetID int64, newCount int) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	if newCount < 0 {
		return common.ErrInvalidCount
	}
	return s.repo.SetCount(ctx, familyID, targetID, newCount)
}

// AdjustCount изменяет счётчик участника на delta (не ниже нуля). Только для админа.
func (s *Service) AdjustCount(ctx context.Context, callerID, familyID, targetID int64, delta int) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	return s.repo.AdjustCount(ctx, familyID, targetID, delta)
}

// ToggleAdmin переключает админ-флаг участника. Только для админа.
func (s *Service) ToggleAdmin(ctx context.Context, callerID, familyID, targetID int64) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	return s.repo.ToggleAdmin(ctx, familyID, targetID)
}

// RemoveMember удаляет участника из семьи. Только для админа.
func (s *Service) RemoveMember(ctx context.Context, callerID, familyID, targetID int64) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, familyID, targetID)
}

// ResetCounts обнуляет счётчики всей семьи. Только для админа.
func (s *Service) ResetCounts(ctx context.Context, callerID, familyID int64) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	return s.repo.ResetCounts(ctx, familyID)
}

// DeleteFamily удаляет семью вместе с участниками. Только для админа.
func (s *Service) DeleteFamily(ctx context.Context, callerID, familyID int64) error {
	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}

	if err := s.repo.DeleteFamily(ctx, familyID); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"family_id": familyID,
		"caller":    callerID,
	}).Info("Семья удалена")

	return nil
}
