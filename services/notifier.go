package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"sitetrack/microservices/tasks-service/logging"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers assignment events to the notifications collaborator.
// Delivery is best effort; the façade logs failures and never fails the
// mutation because of them.
type Notifier interface {
	NotifyTaskAssigned(ctx context.Context, userID primitive.ObjectID, taskTitle string) error
}

// HTTPNotifier posts to the notifications service, guarded by a circuit
// breaker so a dead collaborator cannot stall task mutations.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPNotifier(baseURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *HTTPNotifier {
	return &HTTPNotifier{baseURL: baseURL, client: client, breaker: breaker}
}

func (n *HTTPNotifier) NotifyTaskAssigned(ctx context.Context, userID primitive.ObjectID, taskTitle string) error {
	payload, err := json.Marshal(map[string]string{
		"userId":  userID.Hex(),
		"message": fmt.Sprintf("You have been assigned to the task: %s", taskTitle),
	})
	if err != nil {
		return err
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/notifications", bytes.NewBuffer(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to notify user %s: %v", userID.Hex(), err)
	}
	return err
}

// NoopNotifier drops events; used when no notifications endpoint is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyTaskAssigned(ctx context.Context, userID primitive.ObjectID, taskTitle string) error {
	return nil
}
