package db

import (
	"fmt"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain"
)

func (s *Service) AutoMigrateAll() error {
	if err := s.db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.log.Info("schema migrated", "models", len(domain.Models()))
	return nil
}
