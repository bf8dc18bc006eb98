package console

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rfpdesk/rfpdesk/internal/notifications"
	"github.com/rfpdesk/rfpdesk/internal/users"
)

// UserDirectory reads the user list, credit views and the notification feed
// that plan assignment invalidates.
type UserDirectory struct {
	deps
}

// List returns all users.
func (u *UserDirectory) List(ctx context.Context) ([]users.User, error) {
	list, err := query(ctx, u.cache, KeyUsers, func(ctx context.Context) ([]users.User, error) {
		var out struct {
			Users []users.User `json:"users"`
		}
		err := u.client.do(ctx, http.MethodGet, pathUsers, nil, &out)
		return out.Users, err
	})
	if err != nil {
		return nil, u.report("Could not load users", err)
	}
	return list, nil
}

// Credits returns the credit view of one user.
func (u *UserDirectory) Credits(ctx context.Context, userID int64) (users.Credits, error) {
	path := pathUsers + "/" + strconv.FormatInt(userID, 10) + "/credits"
	c, err := query(ctx, u.cache, UserCreditsKey(userID), func(ctx context.Context) (users.Credits, error) {
		var out users.Credits
		err := u.client.do(ctx, http.MethodGet, path, nil, &out)
		return out, err
	})
	if err != nil {
		return users.Credits{}, u.report("Could not load credits", err)
	}
	return c, nil
}

// Notifications returns the newest notifications.
func (u *UserDirectory) Notifications(ctx context.Context) ([]notifications.Notification, error) {
	list, err := query(ctx, u.cache, KeyNotifications, func(ctx context.Context) ([]notifications.Notification, error) {
		var out struct {
			Notifications []notifications.Notification `json:"notifications"`
		}
		err := u.client.do(ctx, http.MethodGet, pathNotifications, nil, &out)
		return out.Notifications, err
	})
	if err != nil {
		return nil, u.report("Could not load notifications", err)
	}
	return list, nil
}
