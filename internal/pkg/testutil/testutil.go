// Package testutil holds fixtures shared by repository and handler tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/folio-space/core/internal/pkg/events"
)

// MockDB opens gorm on top of sqlmock. Unmet expectations fail the test at cleanup.
func MockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// Notifier records published change events.
type Notifier struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (n *Notifier) Publish(_ context.Context, ev events.ChangeEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *Notifier) Events() []events.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.ChangeEvent(nil), n.events...)
}
