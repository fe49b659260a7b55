package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/taskmerge/pkg/auth"
	"github.com/harrisonrobin/taskmerge/pkg/model"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewClient authenticates with the credentials in configDir, resolves
// calendarName and opens the event index kept next to the credentials.
func NewClient(ctx context.Context, configDir, calendarName string, clock model.Clock) (*CalendarClient, error) {
	httpClient, err := auth.GetClient(ctx, configDir, auth.CalendarScopes)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarID, err := FindCalendarID(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}

	idx, err := OpenEventIndex(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open event index: %w", err)
	}
	return NewCalendarClient(srv, calendarID, idx, clock), nil
}
