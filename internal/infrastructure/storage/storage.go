// Package storage provides object storage for order execution files.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage is the contract the order workflow uses for attachments
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// OrderFileKey derives the storage key of an order execution attachment.
// Keys are namespaced by order and execution so a bucket listing stays
// navigable.
func OrderFileKey(orderID, executionID int, fileName string) string {
	return fmt.Sprintf("orders/%d/executions/%d/%s-%s", orderID, executionID, uuid.New().String(), fileName)
}
