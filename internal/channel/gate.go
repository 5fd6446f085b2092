package channel

import (
	"context"
	"strings"
)

// Gate drops submissions authored by bots, including this one, and any
// submission outside the watched channel. An empty watched channel drops
// everything.
func Gate(watchedChannel string) Middleware {
	watched := strings.TrimSpace(watchedChannel)
	return func(next Handler) Handler {
		return func(ctx context.Context, sub Submission) error {
			if sub.Author.Bot {
				return nil
			}
			if watched == "" || sub.ChannelID != watched {
				return nil
			}
			if len(sub.Attachments) == 0 {
				return nil
			}
			return next(ctx, sub)
		}
	}
}
