package triage

import (
	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
)

// LogNotificationService is the default NotificationService. It records
// every dispatch in the structured log; wiring a real delivery channel
// (email, SMS, push) replaces this implementation behind the same
// interface.
type LogNotificationService struct {
	logger *logger.Logger
}

// NewLogNotificationService creates a log-backed notification service
func NewLogNotificationService(log *logger.Logger) interfaces.NotificationService {
	return &LogNotificationService{logger: log}
}

// NotifyUser sends a message to a user
func (n *LogNotificationService) NotifyUser(userID, message string) error {
	n.logger.WithFields(map[string]interface{}{
		"recipient": userID,
		"channel":   "user",
		"message":   message,
	}).Info("Notification dispatched")
	return nil
}

// NotifyProvider sends a message to a provider
func (n *LogNotificationService) NotifyProvider(providerID, message string) error {
	n.logger.WithFields(map[string]interface{}{
		"recipient": providerID,
		"channel":   "provider",
		"message":   message,
	}).Info("Notification dispatched")
	return nil
}

// OperatorAlert raises a message on the human-facing operator channel.
// This is the path escalation failures take; it must stay loud.
func (n *LogNotificationService) OperatorAlert(subject, message string) error {
	n.logger.WithFields(map[string]interface{}{
		"channel": "operator",
		"subject": subject,
		"message": message,
	}).Error("Operator alert raised")
	return nil
}
