package application

import (
	"context"

	"timesgate/internal/domain"
)

// Notifier receives a one-line message when the device fails to carry out an
// action.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Journal records every executed action.
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
}

type NoopNotifier struct{}

func (*NoopNotifier) Notify(context.Context, string) error { return nil }

type NoopJournal struct{}

func (*NoopJournal) Record(context.Context, domain.JournalEntry) error { return nil }
