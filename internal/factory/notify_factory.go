package factory

import (
	"github.com/briefler/briefler/internal/adapters/notify"
	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"go.uber.org/zap"
)

// NotifyFactory creates digest notifiers
type NotifyFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifyFactory creates a new notify factory
func NewNotifyFactory(cfg *config.Config, logger *zap.Logger) *NotifyFactory {
	return &NotifyFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a digest notifier, or nil when notification is disabled
func (f *NotifyFactory) CreateNotifier() core.Notifier {
	notifyCfg := f.cfg.GetNotify()
	if !notifyCfg.Enabled {
		return nil
	}
	return notify.NewSMTPNotifier(notifyCfg, f.logger)
}
